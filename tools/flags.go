package tools

import (
	"flag"
)

const (
	CommandBuild  = "build"
	CommandVerify = "verify"
	CommandRender = "render"
	CommandServe  = "serve"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

// Flags shared by the commands that read a built atlas
type AtlasFlags struct {
	Input       *string `json:"input"`
	Name        *string `json:"name"`
	TextureSize *int    `json:"texture_size"`
	Config      *string `json:"config"`
}

type FlagsForCommandBuild struct {
	Input                     *string  `json:"input"`
	Output                    *string  `json:"output"`
	TextureSize               *int     `json:"texture_size"`
	Srid                      *int     `json:"srid"`
	TargetSrid                *int     `json:"target_srid"`
	ZOffset                   *float64 `json:"z_offset"`
	Ordering                  *string  `json:"ordering"`
	FolderProcessing          *bool    `json:"folder"`
	RecursiveFolderProcessing *bool    `json:"recursive"`
	Config                    *string  `json:"config"`
	Silent                    *bool
	Help                      *bool
}

type FlagsForCommandVerify struct {
	AtlasFlags
}

type FlagsForCommandRender struct {
	AtlasFlags
	Polygons   *string `json:"polygons"`
	RenderMode *string `json:"render_mode"`
	Output     *string `json:"output"`
}

type FlagsForCommandServe struct {
	AtlasFlags
	Address *string `json:"address"`
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "", false, "Displays the version of pointcloud_atlas.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func ParseFlagsForCommandBuild(args []string) FlagsForCommandBuild {
	flagCommand := flag.NewFlagSet("command-build", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input point file/folder.")
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output folder where to write the atlas textures and metadata.")
	textureSize := defineIntFlagCommand(flagCommand, "size", "s", 0, "Side of the square atlas, one of 1024, 2048, 4096, 8192. Defaults to the configured size.")
	srid := defineIntFlagCommand(flagCommand, "srid", "e", 0, "EPSG srid code of input points. Defaults to the configured srid.")
	targetSrid := defineIntFlagCommand(flagCommand, "target-srid", "", 0, "EPSG srid code points are reprojected to before packing. 0 keeps the source system.")
	zOffset := defineFloat64FlagCommand(flagCommand, "zoffset", "z", 0, "Vertical offset to apply to points, in source units.")
	ordering := defineStringFlagCommand(flagCommand, "ordering", "", "", "Cell assignment policy, can be 'input', 'morton' or 'object'.")
	folderProcessing := defineBoolFlagCommand(flagCommand, "folder", "f", false, "Enables processing of all point files from input folder. Input must be a folder if specified")
	recursiveFolderProcessing := defineBoolFlagCommand(flagCommand, "recursive", "r", false, "Enables recursive lookup for all point files inside the subfolders")
	config := defineStringFlagCommand(flagCommand, "config", "c", "", "Path of a YAML configuration file.")
	silent := defineBoolFlagCommand(flagCommand, "silent", "", false, "Use to suppress all the non-error messages.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")

	flagCommand.Parse(args)

	return FlagsForCommandBuild{
		Input:                     input,
		Output:                    output,
		TextureSize:               textureSize,
		Srid:                      srid,
		TargetSrid:                targetSrid,
		ZOffset:                   zOffset,
		Ordering:                  ordering,
		FolderProcessing:          folderProcessing,
		RecursiveFolderProcessing: recursiveFolderProcessing,
		Config:                    config,
		Silent:                    silent,
		Help:                      help,
	}
}

func defineAtlasFlags(flagCommand *flag.FlagSet) AtlasFlags {
	return AtlasFlags{
		Input:       defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the folder holding the atlas."),
		Name:        defineStringFlagCommand(flagCommand, "name", "n", "", "Name of the atlas, as written by the build command."),
		TextureSize: defineIntFlagCommand(flagCommand, "size", "s", 0, "Side of the atlas. Defaults to the configured size."),
		Config:      defineStringFlagCommand(flagCommand, "config", "c", "", "Path of a YAML configuration file."),
	}
}

func ParseFlagsForCommandVerify(args []string) FlagsForCommandVerify {
	flagCommand := flag.NewFlagSet("command-verify", flag.ExitOnError)
	atlasFlags := defineAtlasFlags(flagCommand)

	flagCommand.Parse(args)

	return FlagsForCommandVerify{AtlasFlags: atlasFlags}
}

func ParseFlagsForCommandRender(args []string) FlagsForCommandRender {
	flagCommand := flag.NewFlagSet("command-render", flag.ExitOnError)
	atlasFlags := defineAtlasFlags(flagCommand)

	polygons := defineStringFlagCommand(flagCommand, "polygons", "p", "", "JSON file listing the polygons to apply, oldest first.")
	renderMode := defineStringFlagCommand(flagCommand, "mode", "m", "", "Render mode of the output. Defaults to the configured mode.")
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Output folder of the classified texture and its preview.")

	flagCommand.Parse(args)

	return FlagsForCommandRender{
		AtlasFlags: atlasFlags,
		Polygons:   polygons,
		RenderMode: renderMode,
		Output:     output,
	}
}

func ParseFlagsForCommandServe(args []string) FlagsForCommandServe {
	flagCommand := flag.NewFlagSet("command-serve", flag.ExitOnError)
	atlasFlags := defineAtlasFlags(flagCommand)

	address := defineStringFlagCommand(flagCommand, "address", "a", "", "Listen address of the command server. Defaults to the configured address.")

	flagCommand.Parse(args)

	return FlagsForCommandServe{
		AtlasFlags: atlasFlags,
		Address:    address,
	}
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
