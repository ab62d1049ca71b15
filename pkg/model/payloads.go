package model

// Credentials is the LOGIN payload. ClientVersion is checked by the server
// against its minimum supported client constraint before authentication.
type Credentials struct {
	UserID        string `json:"userId"`
	Password      string `json:"password"`
	ClientVersion string `json:"clientVersion,omitempty"`
	HostName      string `json:"hostName,omitempty"`
}

// Identity is the LOGOUT / GET_CUSTOMER_ORDERS style payload carrying a
// single user or entity identifier.
type Identity struct {
	ID string `json:"id"`
}

// OrderStatusUpdate is the UPDATE_ORDER_STATUS payload.
type OrderStatusUpdate struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
}

// MenuItemUpdate is the UPDATE_MENU_ITEM payload.
type MenuItemUpdate struct {
	ItemID       int64   `json:"itemId"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	RestaurantID string  `json:"restaurantId"`
}

// ReportRequest is the payload of the date-range report requests
// (IncomeReport, OrdersReport, PerformanceReport).
type ReportRequest struct {
	StartDate string `json:"startDate"` // YYYY-MM-DD
	EndDate   string `json:"endDate"`   // YYYY-MM-DD
	Identity  string `json:"identity"`
}

// QuarterlyReportRequest is the QuarterlyReport payload.
type QuarterlyReportRequest struct {
	Quarter int    `json:"quarter"`
	Year    int    `json:"year"`
	Branch  string `json:"branch"`
}

// Report is a generic report reply payload: a title plus named figures and
// optional per-row breakdowns. Chart rendering is the UI's concern.
type Report struct {
	Title   string                   `json:"title"`
	Figures map[string]float64       `json:"figures,omitempty"`
	Rows    []map[string]interface{} `json:"rows,omitempty"`
}

// StatusReply is a generic success/failure reply payload carrying a
// human-readable message.
type StatusReply struct {
	Message string `json:"message,omitempty"`
}
