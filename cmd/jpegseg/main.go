package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tekkamanendless/jpeg-segment-walker/hexline"
	"github.com/tekkamanendless/jpeg-segment-walker/jpeg"
)

// DefaultOutputName is the name of the scan payload file, next to the input file.
const DefaultOutputName = "sos_segment.bin"

func main() {
	debugValue := false

	var rootCommand = &cobra.Command{
		Use:   "jpegseg",
		Short: "JPEG marker segment walker",
		Long: `
This tool walks the marker segments of a JPEG file and extracts the scan payload.

Use "-" as the filename to read a single image from stdin.
`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debugValue {
				jpeg.SetLogLevel(logrus.DebugLevel)
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
			os.Exit(1)
		},
	}
	rootCommand.PersistentFlags().BoolVar(&debugValue, "debug", false, "Enable debug output")

	{
		var markersCommand = &cobra.Command{
			Use:   "markers <filename> [...]",
			Short: "Show the markers in the given file(s)",
			Args:  cobra.MinimumNArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				failed := false
				for _, filename := range args {
					fmt.Printf("File: %s\n", filename)
					outcome, err := walkFilename(filename)
					if err != nil {
						fmt.Printf("Error: %v\n", err)
						failed = true
						continue
					}
					printOutcome(outcome)
				}
				if failed {
					os.Exit(1)
				}
			},
		}
		rootCommand.AddCommand(markersCommand)
	}

	{
		outputFilename := ""
		strictValue := false
		unstuffValue := false
		var extractCommand = &cobra.Command{
			Use:   "extract <filename>",
			Short: "Extract the scan payload from the given file",
			Long: `
By default, the payload starts right after the Start of Scan marker (so the scan header is included) and ends before the final End of Image marker.
It is written to "` + DefaultOutputName + `" next to the input file.

Use --strict to leave out the scan header, and --unstuff to also remove the byte stuffing and restart markers.
`,
			Args: cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				inputFile := args[0]

				outcome, err := walkFilename(inputFile)
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}

				data, err := selectPayload(outcome, strictValue, unstuffValue)
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}

				destinationFilename := outputFilename
				if destinationFilename == "" {
					destinationFilename = defaultOutputPath(inputFile)
				}

				fmt.Printf("Writing %d bytes of scan data to %s\n", len(data), destinationFilename)
				err = os.WriteFile(destinationFilename, data, 0644)
				if err != nil {
					fmt.Printf("Couldn't write output file: %v\n", err)
					os.Exit(1)
				}
			},
		}
		extractCommand.Flags().StringVar(&outputFilename, "output", outputFilename, "The output file; if not specified, \""+DefaultOutputName+"\" is created next to the input file")
		extractCommand.Flags().BoolVar(&strictValue, "strict", strictValue, "Leave out the scan header")
		extractCommand.Flags().BoolVar(&unstuffValue, "unstuff", unstuffValue, "Leave out the scan header and remove the byte stuffing")
		rootCommand.AddCommand(extractCommand)
	}

	{
		dumpValue := false
		var infoCommand = &cobra.Command{
			Use:   "info <filename> [...]",
			Short: "Show the header tables from the given file(s)",
			Long: `
The output here isn't particularly pretty, but it should be enough for you to see what the file contains.

For a more aggressive output, use the --dump flag.
`,
			Args: cobra.MinimumNArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				failed := false
				for _, filename := range args {
					fmt.Printf("File: %s\n", filename)
					outcome, err := walkFilename(filename)
					if err != nil {
						fmt.Printf("Error: %v\n", err)
						failed = true
						continue
					}
					header, err := jpeg.ParseHeader(outcome)
					if err != nil {
						fmt.Printf("Error: %v\n", err)
						failed = true
						continue
					}
					printHeader(header)

					if dumpValue {
						spew.Dump(header)
					}
				}
				if failed {
					os.Exit(1)
				}
			},
		}
		infoCommand.Flags().BoolVar(&dumpValue, "dump", false, "Dump out everything about the file")
		rootCommand.AddCommand(infoCommand)
	}

	{
		byteLimit := 120
		width := 32
		var debugCommand = &cobra.Command{
			Use:   "debug <filename> <segment>",
			Short: "Show the raw body of a segment from the given file",
			Long: `
The segment is the index shown by the "markers" command.
`,
			Args: cobra.ExactArgs(2),
			Run: func(cmd *cobra.Command, args []string) {
				filename := args[0]

				segmentIndex, err := strconv.Atoi(args[1])
				if err != nil {
					fmt.Printf("Invalid segment index %q: %v\n", args[1], err)
					os.Exit(1)
				}

				outcome, err := walkFilename(filename)
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}
				if segmentIndex < 0 || segmentIndex >= len(outcome.Segments) {
					fmt.Printf("Invalid segment index: %d (there are %d segments)\n", segmentIndex, len(outcome.Segments))
					os.Exit(1)
				}

				segment := outcome.Segments[segmentIndex]
				fmt.Printf("Marker: %s (0x%04x)\n", segment.Marker, uint16(segment.Marker))
				fmt.Printf("Offset: %d\n", segment.Offset)
				fmt.Printf("Length: %d\n", segment.Length)
				fmt.Printf("Data: (%d)\n", len(segment.Data))
				err = hexline.Print(segment.Data, byteLimit, width)
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					os.Exit(1)
				}
				if segment.Marker == jpeg.MarkerSOS {
					fmt.Printf("Payload: (%d)\n", len(outcome.Payload))
					err = hexline.Print(outcome.Payload, byteLimit, width)
					if err != nil {
						fmt.Printf("Error: %v\n", err)
						os.Exit(1)
					}
				}
			},
		}
		debugCommand.Flags().IntVar(&byteLimit, "byte-limit", byteLimit, "The number of bytes to print; use 0 for no limit")
		debugCommand.Flags().IntVar(&width, "width", width, "The number of bytes per line; use 0 for a single line")
		rootCommand.AddCommand(debugCommand)
	}

	err := rootCommand.Execute()
	if err != nil {
		panic(err)
	}
	os.Exit(0)
}

// loadFilename reads the entire contents of the given file.
//
// The filename "-" reads a single image from stdin.
func loadFilename(filename string) ([]byte, error) {
	if filename == "-" {
		contents, err := jpeg.ReadImage(bufio.NewReader(os.Stdin))
		if err != nil {
			return nil, fmt.Errorf("could not read an image from stdin: %w", err)
		}
		return contents, nil
	}

	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read file '%s': %w", filename, err)
	}
	return contents, nil
}

// walkFilename loads the given file and walks its segments.
func walkFilename(filename string) (*jpeg.Outcome, error) {
	contents, err := loadFilename(filename)
	if err != nil {
		return nil, err
	}

	outcome, err := jpeg.Walk(contents)
	if err != nil {
		return nil, fmt.Errorf("could not walk file '%s': %w", filename, err)
	}
	return outcome, nil
}

// defaultOutputPath returns the scan payload path next to the input file.
func defaultOutputPath(inputFile string) string {
	if inputFile == "-" {
		return DefaultOutputName
	}
	return filepath.Join(filepath.Dir(inputFile), DefaultOutputName)
}

// selectPayload returns the bytes that the extract command writes.
func selectPayload(outcome *jpeg.Outcome, strict bool, unstuff bool) ([]byte, error) {
	if outcome.Kind != jpeg.ScanExtracted {
		return nil, fmt.Errorf("no Start of Scan segment was found")
	}
	if !strict && !unstuff {
		return outcome.Payload, nil
	}

	scanData := outcome.ScanData()
	if scanData == nil {
		return nil, fmt.Errorf("the Start of Scan header could not be read")
	}
	if !unstuff {
		return scanData, nil
	}

	unstuffed := jpeg.Unstuff(scanData)
	logrus.Debugf("Unstuffed %d bytes into %d bytes (%d restart markers)", unstuffed.End, len(unstuffed.Data), unstuffed.Restarts)
	return unstuffed.Data, nil
}

// printOutcome prints the visited segments and the result of the walk.
func printOutcome(outcome *jpeg.Outcome) {
	fmt.Printf("Segments: (%d)\n", len(outcome.Segments))
	for i, segment := range outcome.Segments {
		name, ok := jpeg.MarkerName(segment.Marker)
		if !ok {
			name = "unknown"
		}
		fmt.Printf("   %d. 0x%04x %s @ %d", i, uint16(segment.Marker), name, segment.Offset)
		if segment.Length > 0 {
			fmt.Printf(" (length %d)", segment.Length)
		}
		fmt.Printf("\n")
	}
	fmt.Printf("Outcome: %s\n", outcome.Kind)
	if outcome.Kind == jpeg.ScanExtracted {
		fmt.Printf("Scan payload: %d bytes @ %d\n", len(outcome.Payload), outcome.PayloadOffset)
	}
}

// printHeader prints the header tables.
func printHeader(header *jpeg.Header) {
	if header.JFIF != nil {
		fmt.Printf("JFIF: version %s, density %dx%d (units %d), thumbnail %dx%d\n", header.JFIF.Version.Original(), header.JFIF.XDensity, header.JFIF.YDensity, header.JFIF.Units, header.JFIF.ThumbnailWidth, header.JFIF.ThumbnailHeight)
		if header.ExtensionCount > 0 {
			fmt.Printf("JFIF extensions: %d\n", header.ExtensionCount)
		}
	}

	if header.Frame != nil {
		fmt.Printf("Frame: %s: %dx%d, %d-bit\n", header.Frame.Marker, header.Frame.Width, header.Frame.Height, header.Frame.Precision)
		fmt.Printf("Components: (%d)\n", len(header.Frame.Components))
		for _, component := range header.Frame.Components {
			fmt.Printf("   * %d: sampling %dx%d, quantization table %d\n", component.ID, component.Horizontal, component.Vertical, component.QuantizationTableID)
		}
	}

	fmt.Printf("Quantization tables: (%d)\n", len(header.QuantizationTables))
	for _, table := range header.QuantizationTables {
		fmt.Printf("   * %d (%d-bit): %v\n", table.ID, table.Precision, table.Values)
	}

	fmt.Printf("Huffman tables: (%d)\n", len(header.HuffmanTables))
	for _, table := range header.HuffmanTables {
		class := "DC"
		if table.Class == jpeg.HuffmanClassAC {
			class = "AC"
		}
		codes := table.Codes()
		fmt.Printf("   * %s %d: %d codes\n", class, table.ID, len(codes))
		for _, code := range codes {
			fmt.Printf("      * %s -> 0x%02x\n", code, code.Symbol)
		}
	}

	if header.RestartInterval > 0 {
		fmt.Printf("Restart interval: %d\n", header.RestartInterval)
	}

	if header.Scan != nil {
		fmt.Printf("Scan: spectral %d-%d, approximation %d/%d\n", header.Scan.SpectralStart, header.Scan.SpectralEnd, header.Scan.ApproxHigh, header.Scan.ApproxLow)
		for _, component := range header.Scan.Components {
			fmt.Printf("   * %d: DC table %d, AC table %d\n", component.Selector, component.DCTable, component.ACTable)
		}
	}

	for _, comment := range header.Comments {
		fmt.Printf("Comment: %s\n", comment)
	}
}
