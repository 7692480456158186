/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/surya-d-naidu/UniOD/cmd"

func main() {
	cmd.Execute()
}
