package server

// Container keys. Controllers are transient, everything else is a
// singleton.
const (
	KeyConfig = "config"
	KeyLogger = "logger"
	KeyClock  = "clock"

	KeyRoomRepository      = "repository.rooms"
	KeyRoomTypeRepository  = "repository.room_types"
	KeyRoomImageRepository = "repository.room_images"
	KeyBookingRepository   = "repository.bookings"
	KeyUserRepository      = "repository.users"
	KeyAdminRepository     = "repository.admins"

	KeyRoomValidator    = "validator.rooms"
	KeyBookingValidator = "validator.bookings"
	KeyAccountValidator = "validator.accounts"

	KeyBookingLocker = "bookings.locker"
	KeyPublisher     = "events.publisher"
	KeyAuthorizer    = "authz"

	KeyRoomService    = "service.rooms"
	KeyBookingService = "service.bookings"
	KeyAccountService = "service.accounts"
	KeyContactService = "service.contact"

	KeyRenderer     = "view.renderer"
	KeyResponder    = "view.responder"
	KeySessionStore = "session.store"
	KeySessions     = "session.manager"
	KeyRateLimiter  = "middleware.rate_limiter"

	KeySiteController    = "controller.site"
	KeyRoomController    = "controller.rooms"
	KeyBookingController = "controller.bookings"
	KeyAccountController = "controller.accounts"
	KeyAdminController   = "controller.admin"
)
