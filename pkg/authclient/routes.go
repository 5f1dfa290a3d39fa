package authclient

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

const (
	UserLoginPage  = "/login/user_login.html"
	AdminLoginPage = "/login/admin_login.html"
	RegisterPage   = "/login/register.html"

	UserIndexPage   = "/main/user/user_index.html"
	UserProfilePage = "/main/user/user_profile.html"
	AdminIndexPage  = "/main/admin/admin_index.html"
)

var (
	publicPages = []string{"user_login.html", "admin_login.html", "register.html"}

	userPages = []string{
		"user_index.html",
		"user_profile.html",
		"user_canteen.html",
		"user_community.html",
		"merchant_detail.html",
		"stall_menu.html",
		"user_ai_assistant.html",
	}

	adminPages = []string{
		"admin_index.html",
		"canteen_manage.html",
		"stall_dashboard.html",
		"comment_manage.html",
		"content_publish.html",
		"data_report.html",
	}
)

func MerchantDetailPage(id uint) string {
	if id == 0 {
		return "/main/user/merchant_detail.html"
	}
	return fmt.Sprintf("/main/user/merchant_detail.html?id=%d", id)
}

func StallMenuPage(id uint) string {
	if id == 0 {
		return "/main/user/stall_menu.html"
	}
	return fmt.Sprintf("/main/user/stall_menu.html?id=%d", id)
}

// Navigator moves the client to another page.
type Navigator interface {
	Navigate(page string)
}

type NavigatorFunc func(page string)

func (f NavigatorFunc) Navigate(page string) { f(page) }

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}

// pageName strips directories and the query string from a page path.
func pageName(page string) string {
	if i := strings.IndexByte(page, '?'); i >= 0 {
		page = page[:i]
	}
	name := path.Base(page)
	if name == "." || name == "/" {
		return "index.html"
	}
	return name
}

// Router gates pages by the role held in an Agent's session.
type Router struct {
	agent *Agent
}

func NewRouter(a *Agent) *Router {
	return &Router{agent: a}
}

// Check returns the page the client should be sent to instead of page,
// or "" when page may be shown. The redirect is also handed to the navigator.
func (r *Router) Check(page string) string {
	name := pageName(page)
	var redirect string
	switch {
	case slices.Contains(publicPages, name):
	case slices.Contains(adminPages, name):
		if !r.agent.HasRole(RoleAdmin) {
			redirect = AdminLoginPage
		}
	case slices.Contains(userPages, name):
		if !r.agent.HasRole(RoleUser) {
			redirect = UserLoginPage
		}
	}
	if redirect != "" {
		r.agent.navigate(redirect)
	}
	return redirect
}

// RequireRole reports whether the session holds role, redirecting when not.
func (r *Router) RequireRole(role string) bool {
	if !r.agent.IsLoggedIn() {
		r.agent.navigate(UserLoginPage)
		return false
	}
	if !r.agent.HasRole(role) {
		if role == RoleAdmin {
			r.agent.navigate(AdminLoginPage)
		} else {
			r.agent.navigate(UserIndexPage)
		}
		return false
	}
	return true
}

// Home is the landing page for the current session.
func (r *Router) Home() string {
	switch {
	case r.agent.HasRole(RoleAdmin):
		return AdminIndexPage
	case r.agent.HasRole(RoleUser):
		return UserIndexPage
	default:
		return UserLoginPage
	}
}
