// Package config provides configuration parsing for fiberctl.
//
// The configuration is stored in fiberctl.json in the working directory.
// This package handles loading, saving, and validating configuration.
// Missing fields take their defaults.
//
// # Configuration File Structure
//
//	{
//	  "runtime": {
//	    "timeSliceMs": 5,
//	    "maxRerenders": 25,
//	    "commitBudget": 500,
//	    "commitWindowMs": 1000
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "inspect": {
//	    "addr": "127.0.0.1:7070",
//	    "allowedOrigins": ["http://localhost:3000"]
//	  },
//	  "metrics": {
//	    "namespace": "fiber",
//	    "subsystem": "reconciler"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	logger := cfg.NewLogger(os.Stderr)
package config
