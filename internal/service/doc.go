// Package service holds the definition of one service a browser test run
// depends on: its URL, how to start it, how to tell it is ready and which
// environment it needs.
//
// A Definition is plain data. The orchestrator package consumes it and
// freezes it on first start.
//
//	def := service.Named("web", "http://localhost:5173").
//		Serve("npm run dev", "./frontend").
//		ReadyWhen(`Local:\s+http`).
//		Warmup(2 * time.Second).
//		Env(map[string]string{"VITE_GRAPHQL_URL": "/graphql"})
package service
