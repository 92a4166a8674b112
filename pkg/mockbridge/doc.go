// Package mockbridge lets a test process declare HTTP fakes that a separate,
// already running service process applies to its own outbound calls.
//
// The two sides share nothing but a JSON file. The test side writes it with
// Bridge.Fake and removes it with Bridge.ClearFakes; the service side wraps
// its HTTP client in a Transport that consults the file on every request:
//
//	client := &http.Client{Transport: &mockbridge.Transport{Source: mockbridge.Default()}}
//
// A Watcher caches the file and reloads it on change, for services that make
// many calls.
//
// The file maps URL patterns to canned responses:
//
//	{
//	  "https://api.stripe.com/*": {"status": 200, "body": {"id": "ch_1"}},
//	  "https://api.example.com/health": {"status": 503}
//	}
//
// A pattern is literal except for *, which matches any run of characters,
// and must match the whole URL. The first pattern in file order wins.
package mockbridge
