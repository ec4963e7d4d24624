// Package main is the electronctl controller.
//
// electronctl connects to a target server, launches an application, waits
// for its first window and evaluates expressions in the application's main
// scripting context.
//
// Configuration:
//   - Environment variables (ELECTRON_*, LOG_*)
//   - A YAML launch file (-f)
//   - CLI flags (override the launch file)
//
// Usage:
//
//	# Launch and print the application name
//	./electronctl -exec /opt/demo/demo -e '({app}) => app.getName()'
//
//	# Launch from a file
//	./electronctl -f launch.yaml
//
// Launch file:
//
//	executable: /opt/demo/demo
//	args: ["--headless"]
//	env:
//	  MODE: test
//	timeout: 10s
//	window: true
//	evaluate:
//	  - "({app}) => app.getName()"
//	  - "process.argv"
package main
