package main

import (
	"fmt"
	"os"

	"github.com/dargueta/mphenc"
	"github.com/dargueta/mphenc/analysis"
	"github.com/dargueta/mphenc/codec"
	"github.com/dargueta/mphenc/waveform"
	"github.com/gocarina/gocsv"
	"github.com/op/go-logging"
	"github.com/urfave/cli/v2"
)

const progName = "mphenc"

var log = logging.MustGetLogger(progName)

var leveledLogBackend logging.LeveledBackend

func startLogging() {
	backend := logging.NewLogBackend(os.Stderr, progName+": ", 0)
	formatter := logging.MustStringFormatter("%{level:8s} %{module:-20s} | %{message}")
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, formatter))
	leveled.SetLevel(logging.INFO, "")
	logging.SetBackend(leveled)
	leveledLogBackend = leveled
}

var inputFlag = &cli.StringFlag{
	Name:     "in",
	Aliases:  []string{"i"},
	Usage:    "read from `FILE`, or stdin if -",
	Required: true,
}

var outputFlag = &cli.StringFlag{
	Name:    "out",
	Aliases: []string{"o"},
	Usage:   "write to `FILE`, or stdout if -",
	Value:   "-",
}

var chunkSizeFlag = &cli.IntFlag{
	Name:    "chunk-size",
	Aliases: []string{"c"},
	Usage:   "number of columns per chunk",
	Value:   codec.DefaultChunkSize,
	EnvVars: []string{"MPHENC_CHUNK_SIZE"},
}

var bitWidthFlag = &cli.UintFlag{
	Name:    "bit-width",
	Aliases: []string{"w"},
	Usage:   "bits per sample in the uncompressed image",
	Value:   mphenc.DefaultBitWidth,
	EnvVars: []string{"MPHENC_BIT_WIDTH"},
}

var includeCodebookFlag = &cli.BoolFlag{
	Name:  "include-codebook",
	Usage: "count the size of the code tables in compression ratios",
}

func main() {
	startLogging()

	app := cli.App{
		Name:  progName,
		Usage: "Compress integer images with chunked baseline/residual Huffman coding",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debugging output",
				EnvVars: []string{"MPHENC_VERBOSE"},
			},
		},
		Before: func(context *cli.Context) error {
			if context.Bool("verbose") {
				leveledLogBackend.SetLevel(logging.DEBUG, "")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "encode",
				Usage:  "Compress a CSV image into a container",
				Action: encodeImage,
				Flags:  []cli.Flag{inputFlag, outputFlag, chunkSizeFlag, bitWidthFlag},
			},
			{
				Name:   "decode",
				Usage:  "Expand a container back into a CSV image",
				Action: decodeImage,
				Flags:  []cli.Flag{inputFlag, outputFlag},
			},
			{
				Name:   "stats",
				Usage:  "Compare chunked coding of a CSV image with plain Huffman coding",
				Action: imageStats,
				Flags:  []cli.Flag{inputFlag, chunkSizeFlag, bitWidthFlag, includeCodebookFlag},
			},
			{
				Name:   "slices",
				Usage:  "Size a CSV image after median-normalizing column slices",
				Action: imageSlices,
				Flags: []cli.Flag{
					inputFlag,
					outputFlag,
					bitWidthFlag,
					includeCodebookFlag,
					&cli.IntFlag{
						Name:    "nslices",
						Aliases: []string{"n"},
						Usage:   "number of column slices",
						Value:   100,
					},
				},
			},
			{
				Name:   "generate",
				Usage:  "Write a synthetic detector image as CSV",
				Action: generateImage,
				Flags: []cli.Flag{
					outputFlag,
					&cli.IntFlag{
						Name:  "waves",
						Usage: "number of rows (channels) to generate",
						Value: 10,
					},
					&cli.Uint64Flag{
						Name:  "seed",
						Usage: "random seed",
						Value: 1,
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "`KIND` of image: noise or spectrum",
						Value: "noise",
					},
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func encodeImage(context *cli.Context) (err error) {
	img, err := readImageFile(context.String("in"), context.Uint("bit-width"))
	if err != nil {
		return err
	}

	container, err := codec.Encode(img, context.Int("chunk-size"))
	if err != nil {
		return err
	}

	output, closeOutput, err := createOutput(context.String("out"))
	if err != nil {
		return err
	}
	defer closeAndKeepError(closeOutput, &err)

	nWritten, err := container.WriteTo(output)
	if err != nil {
		return err
	}

	log.Infof(
		"encoded %dx%d image to %d bytes, ratio %.4f (%.4f with tables)",
		container.Rows,
		container.Cols,
		nWritten,
		codec.CompressionRatio(img, container, false),
		codec.CompressionRatio(img, container, true),
	)
	return nil
}

func decodeImage(context *cli.Context) error {
	input, closeInput, err := openInput(context.String("in"))
	if err != nil {
		return err
	}
	defer closeInput()

	img, err := codec.DecodeFrom(input)
	if err != nil {
		return err
	}
	return writeImageFile(context.String("out"), img)
}

func imageStats(context *cli.Context) error {
	img, err := readImageFile(context.String("in"), context.Uint("bit-width"))
	if err != nil {
		return err
	}

	report, err := analysis.CompareChunked(
		img, context.Int("chunk-size"), context.Bool("include-codebook"))
	if err != nil {
		return err
	}

	w := context.App.Writer
	fmt.Fprintf(w, "image:     %dx%d, %d-bit samples\n", img.Rows, img.Cols, img.BitWidth)
	fmt.Fprintf(w, "entropy:   image %.4f, baselines %.4f, residuals %.4f bits/symbol\n",
		report.ImageEntropy, report.BaselineEntropy, report.ResidualEntropy)
	fmt.Fprintf(w, "baselines: %d -> %d bits\n", report.Baselines.Native, report.Baselines.Compressed)
	fmt.Fprintf(w, "residuals: %d -> %d bits\n", report.Residuals.Native, report.Residuals.Compressed)
	fmt.Fprintf(w, "special:   %.4f\n", report.Special())
	fmt.Fprintf(w, "nominal:   %.4f\n", report.Nominal())
	fmt.Fprintf(w, "packed:    %d bytes (rle8+gzip %d, zstd %d)\n",
		report.Reference.Packed, report.Reference.RLE8Gzip, report.Reference.Zstd)
	return nil
}

func imageSlices(context *cli.Context) (err error) {
	img, err := readImageFile(context.String("in"), context.Uint("bit-width"))
	if err != nil {
		return err
	}

	report, err := analysis.MedianSlices(
		img, context.Int("nslices"), context.Bool("include-codebook"))
	if err != nil {
		return err
	}

	output, closeOutput, err := createOutput(context.String("out"))
	if err != nil {
		return err
	}
	defer closeAndKeepError(closeOutput, &err)

	if err = gocsv.Marshal(&report.Slices, output); err != nil {
		return err
	}

	log.Infof("medians: %dx%d x %.4f = %d bits",
		report.Medians.Rows, report.Medians.Cols, report.MediansEntropy, report.MediansSizes.Compressed)
	log.Infof("input: %dx%d x %.4f = %d bits",
		img.Rows, img.Cols, report.InputEntropy, report.InputSizes.Compressed)
	log.Infof("compressed: %d, factor: %.4f", report.CompressedBits(), report.Factor())
	log.Infof("native: %d, factor: %.4f", report.InputSizes.Native, report.NativeFactor())
	log.Infof("huffman: %d, factor: %.4f", report.InputSizes.Compressed, report.HuffmanFactor())
	return nil
}

func generateImage(context *cli.Context) error {
	source := waveform.NewSource(context.Uint64("seed"))
	nwaves := context.Int("waves")
	if nwaves < 1 {
		return mphenc.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("need at least one wave, got %d", nwaves))
	}

	var img *mphenc.Image
	var err error
	switch kind := context.String("kind"); kind {
	case "noise":
		img, _ = waveform.Noise(nwaves, source)
	case "spectrum":
		img, err = waveform.SpectrumImage(nwaves, source)
	default:
		err = mphenc.ErrInvalidArgument.WithMessage(fmt.Sprintf("unknown image kind %q", kind))
	}
	if err != nil {
		return err
	}

	log.Debugf("generated %dx%d image", img.Rows, img.Cols)
	return writeImageFile(context.String("out"), img)
}
