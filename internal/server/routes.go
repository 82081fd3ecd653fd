package server

import (
	accountshandler "hotelbooking/internal/accounts/handler"
	adminhandler "hotelbooking/internal/admin/handler"
	bookingshandler "hotelbooking/internal/bookings/handler"
	roomshandler "hotelbooking/internal/rooms/handler"
	sitehandler "hotelbooking/internal/site/handler"
	"hotelbooking/pkg/container"
	"hotelbooking/pkg/router"
)

// Route middleware names.
const (
	mwGuest      = "guest"
	mwAuth       = "auth"
	mwAdmin      = "admin"
	mwAdminGuest = "admin-guest"
	mwCSRF       = "csrf"
	mwThrottle   = "throttle"
	mwCan        = "can"
)

// routes builds the route table. Order matters: the first matching route
// wins, so literal segments such as /rooms/search come before /rooms/{id}.
func routes(c *container.Container, throttle router.Middleware, authorizer Authorizer) *router.Router {
	rt := router.New()
	rt.Use(mwGuest, guest)
	rt.Use(mwAuth, auth)
	rt.Use(mwAdmin, admin)
	rt.Use(mwAdminGuest, adminGuest)
	rt.Use(mwCSRF, csrf)
	rt.Use(mwThrottle, throttle)
	rt.Use(mwCan, can(authorizer))

	site := KeySiteController
	rt.GET("/", router.Action(c, site, (*sitehandler.SiteHandler).Home))
	rt.GET("/about", router.Action(c, site, (*sitehandler.SiteHandler).About))
	rt.GET("/contact", router.Action(c, site, (*sitehandler.SiteHandler).Contact))
	rt.POST("/contact", router.Action(c, site, (*sitehandler.SiteHandler).SubmitContact), mwCSRF, mwThrottle)

	rooms := KeyRoomController
	rt.GET("/rooms", router.Action(c, rooms, (*roomshandler.RoomHandler).Index))
	rt.GET("/rooms/search", router.Action(c, rooms, (*roomshandler.RoomHandler).Search))
	rt.GET("/rooms/{id}", router.Action(c, rooms, (*roomshandler.RoomHandler).Show))
	rt.GET("/api/rooms/{id}/availability", router.Action(c, rooms, (*roomshandler.RoomHandler).Availability))

	bookings := KeyBookingController
	rt.GET("/api/bookings/quote", router.Action(c, bookings, (*bookingshandler.BookingHandler).Quote))
	rt.Group("/bookings", []string{mwAuth}, func(rt *router.Router) {
		rt.GET("/create/{id}", router.Action(c, bookings, (*bookingshandler.BookingHandler).Create))
		rt.POST("", router.Action(c, bookings, (*bookingshandler.BookingHandler).Store), mwCSRF, mwThrottle)
		rt.GET("/confirmation/{reference}", router.Action(c, bookings, (*bookingshandler.BookingHandler).Confirmation))
		rt.POST("/{reference}/cancel", router.Action(c, bookings, (*bookingshandler.BookingHandler).Cancel), mwCSRF)
	})

	accounts := KeyAccountController
	rt.GET("/login", router.Action(c, accounts, (*accountshandler.AccountHandler).ShowLogin), mwGuest)
	rt.POST("/login", router.Action(c, accounts, (*accountshandler.AccountHandler).Login), mwGuest, mwCSRF, mwThrottle)
	rt.GET("/register", router.Action(c, accounts, (*accountshandler.AccountHandler).ShowRegister), mwGuest)
	rt.POST("/register", router.Action(c, accounts, (*accountshandler.AccountHandler).Register), mwGuest, mwCSRF, mwThrottle)
	rt.POST("/logout", router.Action(c, accounts, (*accountshandler.AccountHandler).Logout), mwAuth, mwCSRF)
	rt.Group("/dashboard", []string{mwAuth}, func(rt *router.Router) {
		rt.GET("", router.Action(c, accounts, (*accountshandler.AccountHandler).Dashboard))
		rt.GET("/bookings", router.Action(c, accounts, (*accountshandler.AccountHandler).Bookings))
		rt.GET("/profile", router.Action(c, accounts, (*accountshandler.AccountHandler).Profile))
		rt.PUT("/profile", router.Action(c, accounts, (*accountshandler.AccountHandler).UpdateProfile), mwCSRF)
		rt.PUT("/password", router.Action(c, accounts, (*accountshandler.AccountHandler).UpdatePassword), mwCSRF)
	})

	a := KeyAdminController
	rt.GET("/admin/login", router.Action(c, a, (*adminhandler.AdminHandler).ShowLogin), mwAdminGuest)
	rt.POST("/admin/login", router.Action(c, a, (*adminhandler.AdminHandler).Login), mwAdminGuest, mwCSRF, mwThrottle)
	rt.Group("/admin", []string{mwAdmin, mwCan}, func(rt *router.Router) {
		rt.POST("/logout", router.Action(c, a, (*adminhandler.AdminHandler).Logout), mwCSRF)
		rt.GET("", router.Action(c, a, (*adminhandler.AdminHandler).Dashboard))

		rt.GET("/rooms", router.Action(c, a, (*adminhandler.AdminHandler).Rooms))
		rt.GET("/rooms/create", router.Action(c, a, (*adminhandler.AdminHandler).CreateRoom))
		rt.POST("/rooms", router.Action(c, a, (*adminhandler.AdminHandler).StoreRoom), mwCSRF)
		rt.GET("/rooms/{id}/edit", router.Action(c, a, (*adminhandler.AdminHandler).EditRoom))
		rt.PUT("/rooms/{id}", router.Action(c, a, (*adminhandler.AdminHandler).UpdateRoom), mwCSRF)
		rt.DELETE("/rooms/{id}", router.Action(c, a, (*adminhandler.AdminHandler).DeleteRoom), mwCSRF)

		rt.GET("/bookings", router.Action(c, a, (*adminhandler.AdminHandler).Bookings))
		rt.GET("/bookings/{id}", router.Action(c, a, (*adminhandler.AdminHandler).ShowBooking))
		rt.POST("/bookings/{id}/approve", router.Action(c, a, (*adminhandler.AdminHandler).ApproveBooking), mwCSRF)
		rt.POST("/bookings/{id}/reject", router.Action(c, a, (*adminhandler.AdminHandler).RejectBooking), mwCSRF)
		rt.PUT("/bookings/{id}/dates", router.Action(c, a, (*adminhandler.AdminHandler).RescheduleBooking), mwCSRF)
	})

	return rt
}
