// Package config loads runtime configuration for the TaskFlow client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables TASKFLOW_SERVER_URL, TASKFLOW_SESSION_DB and
//     TASKFLOW_REQUEST_TIMEOUT.
//  3. Optional JSON file selected via flags: -c or -config.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-u string     base URL of the TaskFlow API
//	-s string     path of the local session database
//	-t duration   per-request timeout
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "session_db": "~/.taskflow/session.db",
//	  "request_timeout": "10s"
//	}
package config
