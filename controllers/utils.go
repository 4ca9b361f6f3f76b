package controllers

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// pageQuery parses the 1-based "page" query parameter. Missing or malformed
// values fall back to the first page.
func pageQuery(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
