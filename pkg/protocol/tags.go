package protocol

// Request tags consumed by the server dispatcher.
const (
	TagLogin                   = "LOGIN"
	TagLogout                  = "LOGOUT"
	TagReportManagement        = "REPORT_MANAGEMENT"
	TagNewCustomerRegistration = "NEW_CUSTOMER_REGISTRATION"
	TagGetRestaurants          = "GET_RESTAURANTS"
	TagGetMenuItems            = "GET_MENU_ITEMS"
	TagPlaceOrder              = "PLACE_ORDER"
	TagGetCustomerOrders       = "GET_CUSTOMER_ORDERS"
	TagRestaurantOrders        = "RESTAURANT_ORDERS"
	TagUpdateOrderStatus       = "UPDATE_ORDER_STATUS"
	TagUpdateMenuItem          = "UPDATE_MENU_ITEM"
	TagIncomeReport            = "IncomeReport"
	TagOrdersReport            = "OrdersReport"
	TagPerformanceReport       = "PerformanceReport"
	TagQuarterlyReport         = "QuarterlyReport"
)

// Reply tags produced by the server.
const (
	TagLoginSuccess        = "LOGIN_SUCCESS"
	TagLoginFailed         = "LOGIN_FAILED"
	TagUserAlreadyLoggedIn = "USER_ALREADY_LOGGED_IN"

	TagLogoutSuccess = "LOGOUT_SUCCESS"
	TagLogoutFailed  = "LOGOUT_FAILED"

	TagReportManagementResponse = "REPORT_MANAGEMENT_RESPONSE"

	TagNewCustomerRegistrationSuccess = "NEW_CUSTOMER_REGISTRATION_SUCCESS"
	TagNewCustomerRegistrationFailed  = "NEW_CUSTOMER_REGISTRATION_FAILED"
	TagNewCustomerRegistrationError   = "NEW_CUSTOMER_REGISTRATION_ERROR"

	TagGetRestaurantsResponse    = "GET_RESTAURANTS_RESPONSE"
	TagGetMenuItemsResponse      = "GET_MENU_ITEMS_RESPONSE"
	TagOrderPlacedSuccessfully   = "ORDER_PLACED_SUCCESSFULLY"
	TagOrderPlacementFailed      = "ORDER_PLACEMENT_FAILED"
	TagGetCustomerOrdersResponse = "GET_CUSTOMER_ORDERS_RESPONSE"
	TagRestaurantOrdersResponse  = "RESTAURANT_ORDERS_RESPONSE"
	TagUpdateOrderStatusResponse = "UPDATE_ORDER_STATUS_RESPONSE"

	TagItemUpdated            = "ITEM_UPDATED"
	TagItemNotFound           = "ITEM_NOT_FOUND"
	TagUpdateFailed           = "UPDATE_FAILED"
	TagUpdateMenuItemResponse = "UPDATE_MENU_ITEM_RESPONSE"

	TagIncomeReportResponse      = "IncomeReportResponse"
	TagOrderReportResponse       = "OrderReportResponse"
	TagPerformanceReportResponse = "PerformanceReportResponse"
	TagQuarterlyReportResponse   = "QuarterlyReportResponse"
)

// Notification tags broadcast over the events subject.
const (
	TagOrderStatusChanged = "ORDER_STATUS_CHANGED"
	TagOrderAccepted      = "ORDER_ACCEPTED"
	TagOrderRejected      = "ORDER_REJECTED"
	TagOrderReady         = "ORDER_READY"
	TagClientMessage      = "CLIENT_MESSAGE"
)
