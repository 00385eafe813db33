// ABOUTME: Transient notices carried across redirects in the query string
// ABOUTME: Shown once as a toast on the page the redirect lands on
package web

import (
	"net/http"
	"net/url"

	"github.com/harperreed/dealdeck/board"
	"github.com/labstack/echo/v4"
)

func redirectWithNotice(c echo.Context, path string, n board.Notice) error {
	if n.IsZero() {
		return c.Redirect(http.StatusSeeOther, path)
	}
	v := url.Values{}
	v.Set("notice", n.Message)
	v.Set("kind", string(n.Kind))
	return c.Redirect(http.StatusSeeOther, path+"?"+v.Encode())
}

func noticeFrom(c echo.Context) board.Notice {
	msg := c.QueryParam("notice")
	if msg == "" {
		return board.Notice{}
	}
	switch kind := board.NoticeKind(c.QueryParam("kind")); kind {
	case board.NoticeSuccess, board.NoticeError, board.NoticeInfo:
		return board.Notice{Kind: kind, Message: msg}
	}
	return board.Info(msg)
}

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}
