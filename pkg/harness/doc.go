// Package harness ties the bridge components together for one browser test
// run.
//
// A Run owns the services the run depends on, the fakes it hands to backend
// processes and the mocks it installs in browser pages. Create one per run
// and end it with Teardown:
//
//	run := harness.New(harness.Options{APIBaseURL: "http://localhost:8000"})
//	defer run.Teardown(context.Background())
//
//	run.Register(harness.Service("http://localhost:5173").Serve("npm run dev", "./frontend"))
//	run.MockBrowser("https://api.stripe.com/*", harness.Rule{Status: 200, Body: `{"id":"ch_1"}`})
//
//	err := run.Navigate(ctx, page, "", "/checkout")
//
// Services start lazily on the first Navigate, all of them, once.
package harness
