package triphandler

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

type ListTripsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=REQUESTED STARTED IN_PROGRESS COMPLETED"`
	Limit  int    `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Offset int    `form:"offset,default=0"  binding:"gte=0"`
} // @name ListTripsQuery
