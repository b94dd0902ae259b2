// Package plugins blank-imports every trigger and target plugin so their
// init() functions register with the global plugin registry. Importing this
// package is the only wiring a binary needs to make every plugin available.
package plugins

import (
	_ "firestige.xyz/webhookd/pkg/target/grpc"
	_ "firestige.xyz/webhookd/pkg/target/http"
	_ "firestige.xyz/webhookd/pkg/target/kafka"
	_ "firestige.xyz/webhookd/pkg/trigger/kafka"
	_ "firestige.xyz/webhookd/pkg/trigger/pubsub"
)
