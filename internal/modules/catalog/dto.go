package catalog

type CreateHotelRequest struct {
	Name        string `json:"name" binding:"required"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Description string `json:"description"`
	Stars       int    `json:"stars" binding:"gte=0,lte=5"`
}

type CreateRoomRequest struct {
	HotelID       int64    `json:"hotel_id" binding:"required"`
	Number        string   `json:"number" binding:"required"`
	Description   string   `json:"description"`
	Capacity      int      `json:"capacity" binding:"required,gt=0"`
	PricePerNight float64  `json:"price_per_night" binding:"required,gte=0"`
	Photos        []string `json:"photos"`
}

type UpdateRoomRequest struct {
	Number        *string  `json:"number"`
	Description   *string  `json:"description"`
	Capacity      *int     `json:"capacity"`
	PricePerNight *float64 `json:"price_per_night"`
	Status        *string  `json:"status"`
}
