// Command keylight is the command-line front end for the compositing
// engine. It loads configuration, checks the external toolchain, and
// exposes render, compose, probe, jobs, doctor, and config subcommands.
package main
