package mongo

const (
	RoomTypesCollection    = "Room_types"
	RoomsCollection        = "Rooms"
	RoomImagesCollection   = "Room_images"
	BookingsCollection     = "Bookings"
	BookingLocksCollection = "Booking_locks"
	UsersCollection        = "Users"
	AdminsCollection       = "Admins"
)
