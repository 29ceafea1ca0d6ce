// Package main is the entry point for shellhost.
package main

func main() {
	Execute()
}
