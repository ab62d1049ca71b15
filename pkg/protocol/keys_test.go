package protocol

import "testing"

const keysTestPrefix = "protocol:keys_test"

func TestResponseKey_Normalization(t *testing.T) {
	cases := []struct {
		tag  string
		want string
	}{
		{TagLoginSuccess, TagLogin},
		{TagLoginFailed, TagLogin},
		{TagUserAlreadyLoggedIn, TagLogin},
		{TagLogoutSuccess, TagLogout},
		{TagLogoutFailed, TagLogout},
		{TagReportManagementResponse, TagReportManagement},
		{TagNewCustomerRegistrationSuccess, TagNewCustomerRegistration},
		{TagNewCustomerRegistrationFailed, TagNewCustomerRegistration},
		{TagNewCustomerRegistrationError, TagNewCustomerRegistration},
		{TagGetRestaurantsResponse, TagGetRestaurants},
		{TagGetMenuItemsResponse, TagGetMenuItems},
		{TagOrderPlacedSuccessfully, TagPlaceOrder},
		{TagOrderPlacementFailed, TagPlaceOrder},
		{TagGetCustomerOrdersResponse, TagGetCustomerOrders},
		{TagRestaurantOrdersResponse, TagRestaurantOrders},

		// The status update reply normalizes to its own response tag, as
		// do the menu item update outcome variants.
		{TagUpdateOrderStatusResponse, TagUpdateOrderStatusResponse},
		{TagItemUpdated, TagUpdateMenuItemResponse},
		{TagItemNotFound, TagUpdateMenuItemResponse},
		{TagUpdateFailed, TagUpdateMenuItemResponse},
		{TagUpdateMenuItemResponse, TagUpdateMenuItemResponse},

		// Report replies map to themselves.
		{TagIncomeReportResponse, TagIncomeReportResponse},
		{TagOrderReportResponse, TagOrderReportResponse},
		{TagPerformanceReportResponse, TagPerformanceReportResponse},
		{TagQuarterlyReportResponse, TagQuarterlyReportResponse},
	}

	for _, tc := range cases {
		if got := ResponseKey(tc.tag); got != tc.want {
			t.Errorf("%s - ResponseKey(%s) = %s, want %s", keysTestPrefix, tc.tag, got, tc.want)
		}
	}
}

func TestResponseKey_UnlistedPassThrough(t *testing.T) {
	if got := ResponseKey("SOMETHING_ELSE"); got != "SOMETHING_ELSE" {
		t.Errorf("%s - unlisted tag should map to itself, got %s", keysTestPrefix, got)
	}
}

func TestRequestKey(t *testing.T) {
	cases := []struct {
		tag  string
		want string
	}{
		// Most requests wait on their own tag.
		{TagLogin, TagLogin},
		{TagLogout, TagLogout},
		{TagGetRestaurants, TagGetRestaurants},
		{TagPlaceOrder, TagPlaceOrder},

		// These wait on a distinct response key.
		{TagUpdateOrderStatus, TagUpdateOrderStatusResponse},
		{TagUpdateMenuItem, TagUpdateMenuItemResponse},
		{TagIncomeReport, TagIncomeReportResponse},
		{TagOrdersReport, TagOrderReportResponse},
		{TagPerformanceReport, TagPerformanceReportResponse},
		{TagQuarterlyReport, TagQuarterlyReportResponse},
	}

	for _, tc := range cases {
		if got := RequestKey(tc.tag); got != tc.want {
			t.Errorf("%s - RequestKey(%s) = %s, want %s", keysTestPrefix, tc.tag, got, tc.want)
		}
	}
}

// Every request's inbox key must be reachable from at least one reply
// tag's normalized key, otherwise a call could never complete.
func TestRequestAndResponseKeysAgree(t *testing.T) {
	replyKeys := map[string]bool{}
	for tag := range responseKeys {
		replyKeys[ResponseKey(tag)] = true
	}
	// Self-mapping reply tags.
	for _, tag := range []string{
		TagUpdateOrderStatusResponse,
		TagIncomeReportResponse, TagOrderReportResponse,
		TagPerformanceReportResponse, TagQuarterlyReportResponse,
	} {
		replyKeys[ResponseKey(tag)] = true
	}

	requests := []string{
		TagLogin, TagLogout, TagReportManagement, TagNewCustomerRegistration,
		TagGetRestaurants, TagGetMenuItems, TagPlaceOrder, TagGetCustomerOrders,
		TagRestaurantOrders, TagUpdateOrderStatus, TagUpdateMenuItem,
		TagIncomeReport, TagOrdersReport, TagPerformanceReport, TagQuarterlyReport,
	}
	for _, req := range requests {
		if !replyKeys[RequestKey(req)] {
			t.Errorf("%s - no reply tag normalizes to key %s for request %s", keysTestPrefix, RequestKey(req), req)
		}
	}
}
