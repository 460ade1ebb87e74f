// Package responder runs the SSDP discovery listener.
//
// A Listener owns the UDP socket on port 1900. It receives datagrams,
// validates them with package ssdp and answers every accepted M-SEARCH with
// one response per registered device, in registry order, sent back to the
// querying peer.
//
// # Socket Acquisition
//
// Opening and binding the socket is retried with a constant delay
// (MaxRetries, RetryDelay). When every attempt fails Run returns a
// *StartupError and the receive loop never starts.
//
// # Lifecycle
//
// A Controller starts the listener in its own goroutine and stops it
// cooperatively:
//
//	ctrl := responder.NewController(listener)
//	if err := ctrl.Start(ctx); err != nil {
//	    return err // ErrAlreadyRunning
//	}
//	...
//	ctrl.Stop()   // returns immediately
//	<-ctrl.Done() // closed once the loop has exited
//
// Stop only cancels; the loop notices between receives, so shutdown latency
// is bounded by the receive timeout. With a zero timeout the loop exits
// after the next datagram arrives.
//
// # Error Handling
//
// Rejected queries, address resolution failures, response build failures
// and send failures are logged and never stop the loop. A failed send for
// one device does not prevent responses for the remaining devices.
package responder
