package ws

// UserRef is the identity reference embedded in inbound messages.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// CreateTripMessage is sent by a rider to request a trip.
type CreateTripMessage struct {
	PickUpAddress  string   `json:"pick_up_address"  validate:"required"`
	DropOffAddress string   `json:"drop_off_address" validate:"required"`
	Rider          *UserRef `json:"rider"            validate:"required"`
}

// UpdateTripMessage is sent by a driver to mutate an existing trip. Absent
// fields leave the stored values untouched.
type UpdateTripMessage struct {
	NK             string   `json:"nk" validate:"required"`
	PickUpAddress  *string  `json:"pick_up_address,omitempty"`
	DropOffAddress *string  `json:"drop_off_address,omitempty"`
	Status         *string  `json:"status,omitempty"`
	Driver         *UserRef `json:"driver,omitempty"`
}

// ErrorBody is returned to the sending connection only.
type ErrorBody struct {
	Error string `json:"error"`
}
