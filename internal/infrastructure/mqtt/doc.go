// Package mqtt publishes PlevenLab change notifications to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Content change notifications on plevenlab/content/{entity}/{action}
//   - A retained online/offline status with Last Will and Testament (LWT)
//   - Connection health monitoring
//
// The client never subscribes. Consumers such as the public site cache or
// a mobile push relay listen on the content topics and refetch over HTTP.
//
// # Security Considerations
//
//   - Use TLS outside local development (cfg.Broker.TLS=true)
//   - Payloads carry ids only, never content bodies or user details
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, logger)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	notifier := mqtt.NewNotifier(client, client.Topics(), byte(cfg.MQTT.QoS))
//	notifier.PublishContentChange("event", "create", 42, 1)
package mqtt
