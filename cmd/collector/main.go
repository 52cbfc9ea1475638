// Package main provides the collector worker and its operator commands.
//
// Usage:
//
//	collector worker
//	collector enqueue <id> <target>
//	collector validate <url>...
//	collector rotate
//	collector verify <storage-path> <sha256>
package main

func main() {
	Execute()
}
