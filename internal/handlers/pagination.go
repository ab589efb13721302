// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize = 10
	maxPageSize     = 10
	// maxPage keeps page*size inside int32 so the SQL offset cannot overflow.
	maxPage = math.MaxInt32 / maxPageSize
)

// pagination reads page and pageSize from the query. Missing or invalid
// values fall back to the first page of ten.
func pagination(c echo.Context) (page, size int) {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 0 {
		page = 0
	}
	if page > maxPage {
		page = maxPage
	}

	size, err = strconv.Atoi(c.QueryParam("pageSize"))
	if err != nil || size < 1 || size > maxPageSize {
		size = defaultPageSize
	}

	return page, size
}
