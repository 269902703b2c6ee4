// Command drivectl runs StrataDrive maintenance tasks against the configured
// backends. It reads the same configuration as the server (STRATADRIVE_*
// environment variables, config files, and flags).
package main

func main() {
	Execute()
}
