// Package testutil provides helpers for testing code that is wired with a
// *di.Container.
//
// Containers opened here log nothing and are closed when the test ends:
//
//	func TestCheckout(t *testing.T) {
//	    c := testutil.Container(t, orders.Module(), payments.Module())
//	    testutil.Swap(t, c, payments.Module(), fakePayments())
//	    svc := testutil.Resolve[*orders.Service](t, c)
//	    ...
//	}
package testutil
