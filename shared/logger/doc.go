// Copyright 2025 Drivergate
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package logger provides structured JSON logging for drivergate components.

# Overview

The logger package provides structured logging that outputs JSON to stdout,
making logs easily consumable by CloudWatch, ELK stack, or other log
aggregation systems.

Each log entry includes:
  - Timestamp (RFC3339Nano format)
  - Log level (DEBUG, INFO, WARN, ERROR)
  - Component name (lifecycle, weaver, boot, etc.)
  - Instance ID and container name (for distributed tracing)
  - Module ID (when the entry concerns a managed module)
  - Custom fields

# Usage

Create a logger for your component:

	log := logger.New("lifecycle")

Log messages:

	log.Info("Module observed", map[string]interface{}{
	    "state": "active",
	})

Attribute entries to a module:

	log.Module(42).Warn("Provider load skipped", map[string]interface{}{
	    "class": "org.example.Driver",
	})

Log errors with the cause attached:

	log.ErrorWithErr("Provider load failed", err, nil)

# Output Format

Log entries are output as single-line JSON:

	{"timestamp":"2025-01-15T10:30:00.123456789Z","level":"INFO",
	 "component":"lifecycle","instance_id":"i-abc123","container":"gate-xyz",
	 "module_id":42,"message":"Module observed","fields":{"state":"active"}}

# Environment Variables

The logger reads these environment variables:

  - INSTANCE_ID: Deployment instance identifier
  - HOSTNAME: Container hostname (auto-detected)

# Thread Safety

Logger instances are safe for concurrent use from multiple goroutines.
*/
package logger
