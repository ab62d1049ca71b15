package protocol

// responseKeys maps incoming reply tags to the coarser key under which the
// correlator stores them. Related outcome variants collapse to one key so a
// pending call can recover its reply regardless of which variant arrived.
// This table is part of the protocol contract and must not drift.
var responseKeys = map[string]string{
	TagLoginSuccess:        TagLogin,
	TagLoginFailed:         TagLogin,
	TagUserAlreadyLoggedIn: TagLogin,

	TagLogoutSuccess: TagLogout,
	TagLogoutFailed:  TagLogout,

	TagReportManagementResponse: TagReportManagement,

	TagNewCustomerRegistrationSuccess: TagNewCustomerRegistration,
	TagNewCustomerRegistrationFailed:  TagNewCustomerRegistration,
	TagNewCustomerRegistrationError:   TagNewCustomerRegistration,

	TagGetRestaurantsResponse: TagGetRestaurants,
	TagGetMenuItemsResponse:   TagGetMenuItems,

	TagOrderPlacedSuccessfully: TagPlaceOrder,
	TagOrderPlacementFailed:    TagPlaceOrder,

	TagGetCustomerOrdersResponse: TagGetCustomerOrders,
	TagRestaurantOrdersResponse:  TagRestaurantOrders,

	TagUpdateOrderStatus: TagUpdateOrderStatusResponse,

	TagItemUpdated:            TagUpdateMenuItemResponse,
	TagItemNotFound:           TagUpdateMenuItemResponse,
	TagUpdateFailed:           TagUpdateMenuItemResponse,
	TagUpdateMenuItemResponse: TagUpdateMenuItemResponse,
}

// requestKeys maps a request tag to the key its replies normalize to, so
// the caller knows which inbox slot to watch after sending.
var requestKeys = map[string]string{
	TagUpdateOrderStatus: TagUpdateOrderStatusResponse,
	TagUpdateMenuItem:    TagUpdateMenuItemResponse,
	TagIncomeReport:      TagIncomeReportResponse,
	TagOrdersReport:      TagOrderReportResponse,
	TagPerformanceReport: TagPerformanceReportResponse,
	TagQuarterlyReport:   TagQuarterlyReportResponse,
}

// ResponseKey returns the normalized inbox key for an incoming reply tag.
// Unlisted tags map to themselves.
func ResponseKey(tag string) string {
	if key, ok := responseKeys[tag]; ok {
		return key
	}
	return tag
}

// RequestKey returns the inbox key a caller must wait on after sending a
// request with the given tag. For most requests the replies normalize to
// the request tag itself.
func RequestKey(tag string) string {
	if key, ok := requestKeys[tag]; ok {
		return key
	}
	return tag
}
