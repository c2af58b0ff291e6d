package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/antrean/frontdesk-sdk-go/pkg/frontdesk"
)

var (
	verbose  bool
	endpoint string
	language string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "frontdesk",
		Short: "Front Desk SDK Go CLI",
		Long:  "A command-line client for the front desk voice session SDK",
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "WebSocket endpoint URL")
	rootCmd.PersistentFlags().StringVar(&language, "language", "", "Session language tag")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(devicesCmd())

	if err := rootCmd.Execute(); err != nil {
		frontdesk.GetGlobalLogger().WithError(err).Fatal("CLI execution failed")
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an interactive voice session",
		Long:  "Connect to the front desk agent, stream the microphone, and print the live transcript until a queue ticket is issued or the session is interrupted",
		Run: func(cmd *cobra.Command, args []string) {
			config := frontdesk.NewSessionConfig()
			audio := frontdesk.NewAudioConfig()

			if endpoint != "" {
				config.WsEndpoint = endpoint
			}
			if language != "" {
				config.Language = language
			}
			if verbose {
				config.DebugChannel = true
				logConfig := frontdesk.DefaultLogConfig()
				logConfig.Level = frontdesk.DebugLevel
				frontdesk.SetGlobalLogger(frontdesk.NewLogger(logConfig))
			}

			if issues := config.Validate(); len(issues) > 0 {
				for _, issue := range issues {
					fmt.Printf("Config issue: %s\n", issue)
				}
				os.Exit(1)
			}

			session := frontdesk.NewSessionController(config, audio)
			session.AddTranscriptHandler(frontdesk.CreateTranscriptPrinter(os.Stdout))

			done := make(chan struct{})
			session.AddTicketHandler(func(ticket frontdesk.QueueTicket) {
				frontdesk.CreateTicketPrinter(os.Stdout)(ticket)
				close(done)
			})

			identity := session.Identity()
			fmt.Printf("Connecting to %s as %s/%s...\n", config.WsEndpoint, identity.UserID, identity.SessionID)
			session.Connect()
			waitForConnection(session)

			state := session.Snapshot()
			if !state.Connected {
				fmt.Printf("Connection failed: %s\n", state.Err)
				os.Exit(1)
			}

			fmt.Println("Connected. Recording: speak now, or type a message and press enter.")
			session.ToggleRecording()

			go readStdinInto(session)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			select {
			case <-done:
				fmt.Println("Ticket issued, session complete.")
			case <-sig:
				fmt.Println("\nInterrupted.")
			}

			session.Disconnect()
			printTranscript(session)
		},
	}

	return cmd
}

func waitForConnection(session *frontdesk.SessionController) {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		state := session.Snapshot()
		if state.Connected || state.Err != "" {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func readStdinInto(session *frontdesk.SessionController) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text != "" {
			session.SendText(text)
		}
	}
}

func printTranscript(session *frontdesk.SessionController) {
	state := session.Snapshot()
	if len(state.Transcripts) == 0 {
		return
	}
	fmt.Println("\n=== Transcript ===")
	for _, entry := range state.Transcripts {
		fmt.Printf("[%s] %s\n", entry.Speaker, entry.Text)
	}
	if state.Ticket != nil {
		fmt.Printf("\nTicket: %s (ETA %d min)\n", state.Ticket.TicketNumber, state.Ticket.ETAMinutes)
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		Long:  "Display current configuration settings",
		Run: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()

			config := frontdesk.NewSessionConfig()
			audio := frontdesk.NewAudioConfig()

			if endpoint != "" {
				config.WsEndpoint = endpoint
			}

			config.PrintConfig()
			fmt.Println()
			audio.PrintConfig()

			if issues := config.Validate(); len(issues) > 0 {
				fmt.Println("\nIssues:")
				for _, issue := range issues {
					fmt.Printf("  - %s\n", issue)
				}
			}
		},
	}

	return cmd
}

func devicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio devices",
		Long:  "List all available audio input and output devices",
		Run: func(cmd *cobra.Command, args []string) {
			devices, err := frontdesk.ListAudioDevices()
			if err != nil {
				frontdesk.GetGlobalLogger().WithError(err).Error("Failed to list audio devices")
				fmt.Printf("Error listing devices: %v\n", err)
				return
			}

			fmt.Println("Available Audio Devices:")
			for _, device := range devices {
				marker := ""
				if device.IsDefaultInput {
					marker += " (default input)"
				}
				if device.IsDefaultOutput {
					marker += " (default output)"
				}
				fmt.Printf("  %d: %s%s - in:%d out:%d (%.0f Hz)\n",
					device.ID, device.Name, marker,
					device.MaxInputChannels, device.MaxOutputChannels, device.DefaultSampleRate)
			}
		},
	}

	return cmd
}
