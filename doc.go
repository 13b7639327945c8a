// Package oekoboiler provides a Go client for Oekoboiler heat-pump water
// heaters connected to the Ayla Networks IoT cloud.
//
// # Authentication
//
// The client signs in with the e-mail and password of the Oekoboiler app.
// No network call is made at construction; the first request signs in, and
// every later request checks the token first:
//
//	client, err := oekoboiler.NewClient("user@example.com", "secret")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access tokens are treated as expired one hour before the lifetime the
// platform declares and are refreshed transparently. A client may be shared
// between goroutines; concurrent requests share a single sign-in or refresh.
//
// # Basic Usage
//
// List devices:
//
//	devices, err := client.ListDevices(ctx)
//	for _, d := range devices {
//	    fmt.Printf("%s (%s)\n", d.Device.ProductName, d.DSN())
//	}
//
// Read a boiler:
//
//	boiler, err := client.GetBoiler(ctx, dsn)
//	if temp, ok := boiler.CurrentWaterTemp.Int(); ok {
//	    fmt.Printf("water: %d°C\n", temp)
//	}
//
// Properties the device does not report come back as an empty Value, which
// means unknown rather than zero.
//
// Change a setting:
//
//	err := client.SetWaterTemperature(ctx, dsn, 55)
//
// or write any raw property by key:
//
//	err := client.UpdateProperty(ctx, key, 1)
//
// # Error Handling
//
//	boiler, err := client.GetBoiler(ctx, dsn)
//	if err != nil {
//	    if oekoboiler.IsAuthenticationError(err) {
//	        // Wrong credentials or the refresh token was rejected
//	    } else if oekoboiler.IsNetworkError(err) {
//	        // Could not reach the platform
//	    } else if oekoboiler.IsNotFound(err) {
//	        // Unknown DSN
//	    }
//	}
package oekoboiler
