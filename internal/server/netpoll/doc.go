// Package netpoll wraps the operating system readiness notification
// facility (epoll on Linux, kqueue on Darwin and FreeBSD) and the raw
// nonblocking socket calls the server's event loop needs.
//
// A Poller is owned by a single goroutine except for Wake, which any
// goroutine may call to interrupt a blocked Wait.
package netpoll
