// Package harness is the end-to-end suite for the demo storefront.
//
// Scenarios address elements only through data-testid locator names, so a
// renamed locator surfaces as a LocatorResolutionFailure rather than as a
// broken assertion. That is the signal an external healing tool consumes.
//
// # Scenario Format
//
// Scenarios are YAML files decoded strictly (unknown fields are errors):
//
//	name: cart_remove_item
//	description: "Removing one item updates the count and total"
//	setup:
//	  - open: /login
//	  - fill: email-input
//	    value: user@shop.com
//	  - fill: password-input
//	    value: password123
//	  - click: submit-button
//	steps:
//	  - click: remove-item-button
//	    nth: 0
//	  - expect: cart-count
//	    text: "2 items"
//	  - expect: cart-total
//	    text: "$69.98"
//
// Each step carries exactly one action: open, fill, click or expect.
// Expectations may check text (exact, whitespace collapsed), contains,
// value (form controls) and visible.
//
// # Drivers
//
// A Driver is the browser automation boundary. HTTPDriver keeps a cookie
// jar and a parsed DOM and submits forms itself; RodDriver drives a real
// Chrome through go-rod. Every scenario gets a fresh driver and therefore
// a fresh application session.
//
// # Failure Kinds
//
//   - locator_resolution: a locator matched no element
//   - assertion: the element exists but the expectation does not hold
//   - execution: anything else (HTTP errors, cancelled context)
//
// None of them stop the run; the Report lists one Result per scenario in
// catalog order.
package harness
