/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/Bhuvanani14/goodcity/cmd"

func main() {
	cmd.Execute()
}
