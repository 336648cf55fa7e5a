// Package config loads runtime configuration for the gophauth CLI.
//
// Sources are applied in order, later ones winning: built-in defaults, an
// optional JSON file named by -c or -config, then the -a, -t and -f flags.
//
// JSON durations accept either "10s"-style strings or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "10s",
//	  "token_file": "/home/me/.config/gophauth/session.json"
//	}
package config
