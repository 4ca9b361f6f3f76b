package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"tryonapi/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ShopMiddleware resolves the shop from the widget token. The token is minted
// by the admin side with the shop domain as subject; the widget never sees
// any other credentials.
func ShopMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		db := c.Get("__db").(*gorm.DB)
		tokenRaw := c.Get("user")
		if tokenRaw == nil {
			return echo.ErrUnauthorized
		}
		token := tokenRaw.(*jwt.Token)
		claims := token.Claims.(jwt.MapClaims)
		shopDomain, _ := claims["sub"].(string)
		if shopDomain == "" {
			log.Println("Error while getting the token information!")
			return echo.ErrUnauthorized
		}

		var shop models.Shop
		result := db.Where("domain = ?", shopDomain).Take(&shop)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return echo.ErrUnauthorized
		}
		if result.Error != nil {
			fmt.Println("Failed to fetch shop info", result.Error)
			return echo.ErrInternalServerError
		}
		if !shop.Active {
			return echo.NewHTTPError(http.StatusLocked)
		}
		c.Set("currentShop", shop)
		return next(c)
	}
}
