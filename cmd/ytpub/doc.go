// Command ytpub publishes local video asset folders to YouTube. It manages
// a persistent upload queue, a background daemon, OAuth credentials, and a
// handful of read-only YouTube queries.
package main
