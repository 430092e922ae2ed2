// Package tlsroots manages the TLS material used by blueis.
//
// The server side loads its certificate through a CertReloader, which
// picks up renewed files without a restart. The client side builds a
// tls.Config trusting the system roots plus an optional CA bundle.
package tlsroots
