// Package config loads bridge.yaml, the file the bridge CLI reads to learn
// which dev servers a project needs.
//
// Values missing from the file keep their defaults. Durations are Go
// duration strings such as "500ms" or "2m".
//
//	apiUrl: http://localhost:8000
//	readyTimeout: 90s
//	probe:
//	  interval: 250ms
//	  attempts: 40
//	parallel: true
//	services:
//	  - url: http://localhost:5173
//	    command: npm run dev
//	    cwd: ./frontend
//	    readyPattern: "ready in"
//	    env:
//	      VITE_GRAPHQL_URL: /graphql
//	    children:
//	      - name: admin
//	        path: /admin
//
// Relative service directories are resolved against the directory holding
// the configuration file.
package config
