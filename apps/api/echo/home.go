package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type (
	link struct {
		Label string `json:"label"`
		Href  string `json:"href"`
	}

	homeView struct {
		Greeting string `json:"greeting"`
		Role     string `json:"role"`
		Links    []link `json:"links"`
	}
)

func registerHomeAPI(g *echo.Group, gate echo.MiddlewareFunc) {
	g.GET("/home", home, gate)
}

func home(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	links := make([]link, 0, 3)
	if usr.IsAdmin() {
		links = append(links, link{Label: "Teachers", Href: "/teachers"}, link{Label: "Centers", Href: "/centers"})
	}
	if !usr.IsParent() {
		links = append(links, link{Label: "Data", Href: "/data"})
	}

	return ctx.JSON(http.StatusOK, homeView{
		Greeting: "Welcome, " + usr.DisplayName("User"),
		Role:     usr.Role.Label(),
		Links:    links,
	})
}
