// Package main is the entry point for shapegen.
package main

func main() {
	Execute()
}
