package ledger

// Contract method and event names as they appear in the restaurant contract ABI.
const (
	MethodBookings         = "bookings"
	MethodBookingCount     = "bookingCount"
	MethodGetBookings      = "getBookings"
	MethodRestaurants      = "restaurants"
	MethodCreateRestaurant = "createRestaurant"
	MethodCreateBooking    = "createBooking"
	MethodEditBooking      = "editBooking"
	MethodRemoveBooking    = "removeBooking"

	EventRestaurantCreated = "RestaurantCreated"
	EventBookingCreated    = "BookingCreated"
)

// RestaurantABI is the subset of the deployed contract's ABI the service uses.
const RestaurantABI = `[
  {"type":"function","name":"bookingCount","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"bookings","stateMutability":"view",
   "inputs":[{"name":"","type":"uint256"}],
   "outputs":[{"name":"id","type":"uint256"},{"name":"numberOfGuests","type":"uint256"},
              {"name":"name","type":"string"},{"name":"date","type":"uint256"},
              {"name":"time","type":"uint256"},{"name":"restaurantId","type":"uint256"}]},
  {"type":"function","name":"getBookings","stateMutability":"view",
   "inputs":[{"name":"restaurantId","type":"uint256"}],
   "outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"function","name":"restaurants","stateMutability":"view",
   "inputs":[{"name":"","type":"uint256"}],
   "outputs":[{"name":"id","type":"uint256"},{"name":"name","type":"string"}]},
  {"type":"function","name":"createRestaurant","stateMutability":"nonpayable",
   "inputs":[{"name":"name","type":"string"}],"outputs":[]},
  {"type":"function","name":"createBooking","stateMutability":"nonpayable",
   "inputs":[{"name":"numberOfGuests","type":"uint256"},{"name":"name","type":"string"},
             {"name":"date","type":"uint256"},{"name":"time","type":"uint256"},
             {"name":"restaurantId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"editBooking","stateMutability":"nonpayable",
   "inputs":[{"name":"id","type":"uint256"},{"name":"numberOfGuests","type":"uint256"},
             {"name":"name","type":"string"},{"name":"date","type":"uint256"},
             {"name":"time","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"removeBooking","stateMutability":"nonpayable",
   "inputs":[{"name":"id","type":"uint256"}],"outputs":[]},
  {"type":"event","name":"RestaurantCreated","anonymous":false,
   "inputs":[{"name":"id","type":"uint256","indexed":false},{"name":"name","type":"string","indexed":false}]},
  {"type":"event","name":"BookingCreated","anonymous":false,
   "inputs":[{"name":"id","type":"uint256","indexed":false},{"name":"numberOfGuests","type":"uint256","indexed":false},
             {"name":"name","type":"string","indexed":false},{"name":"date","type":"uint256","indexed":false},
             {"name":"time","type":"uint256","indexed":false},{"name":"restaurantId","type":"uint256","indexed":false}]}
]`
