/*
 * This file is part of the Go Cesium Point Cloud Tiler distribution (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 *
 * This software also uses third party components. You can find information
 * on their credits and licensing in the file LICENSE-3RD-PARTIES.md that
 * you should have received togheter with the source code.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ecopia-map/pointcloud_atlas/internal/atlas"
	"github.com/ecopia-map/pointcloud_atlas/internal/classification"
	"github.com/ecopia-map/pointcloud_atlas/internal/config"
	"github.com/ecopia-map/pointcloud_atlas/internal/engine"
	"github.com/ecopia-map/pointcloud_atlas/internal/rpc"
	"github.com/ecopia-map/pointcloud_atlas/internal/source"
	"github.com/ecopia-map/pointcloud_atlas/pkg"
	"github.com/ecopia-map/pointcloud_atlas/pkg/algorithm_manager"
	"github.com/ecopia-map/pointcloud_atlas/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/pointcloud_atlas/tools"
	"github.com/golang/glog"
)

const VERSION = "2.0.0"

const logo = `
             _       _            _                 _   _
 _ __   ___ (_)_ __ | |_ ___ ___ | | ___  _   _  __| | | |_ _ __ ___
| '_ \ / _ \| | '_ \| __/ __/ _ \| |/ _ \| | | |/ _  |/ _  | __| '__/ _ \
| |_) | (_) | | | | | || (_| (_) | | (_) | |_| | (_| | (_| | |_| | | (_) |
| .__/ \___/|_|_| |_|\__\___\___/|_|\___/ \__,_|\__,_|\__,_|\__|_|  \___/
|_|  Point cloud atlas builder and classification engine written in golang
     Copyright YYYY - Ecopia Map
`

func main() {
	// glog writes to files by default, the command line tool logs to stderr unless told otherwise
	flag.Set("logtostderr", "true")

	flagsGlobal := tools.ParseFlagsGlobal()
	defer glog.Flush()

	if *flagsGlobal.Help {
		showHelp()
		return
	}
	if *flagsGlobal.Version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		glog.Exit("Please specify a subcommand [build|verify|render|serve].")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandBuild:
		mainCommandBuild(args)
	case tools.CommandVerify:
		mainCommandVerify(args)
	case tools.CommandRender:
		mainCommandRender(args)
	case tools.CommandServe:
		mainCommandServe(args)
	default:
		glog.Exitf("Unrecognized command [%q]. Command must be one of [build|verify|render|serve]", cmd)
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		glog.Exit("Error loading configuration: ", err)
	}
	cfg.ApplyLogging()
	return cfg
}

func mainCommandBuild(args []string) {
	flags := tools.ParseFlagsForCommandBuild(args)

	if *flags.Help {
		showHelp()
		return
	}

	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}

	cfg := loadConfig(*flags.Config)

	// configuration first, explicit flags on top
	opts := atlas.DefaultOptions()
	cfg.ApplyToAtlasOptions(opts)
	opts.Input = tools.ResolvePath(*flags.Input)
	opts.Output = tools.ResolvePath(*flags.Output)
	opts.FolderProcessing = *flags.FolderProcessing
	opts.Recursive = *flags.RecursiveFolderProcessing
	opts.Silent = *flags.Silent
	if *flags.TextureSize != 0 {
		opts.TextureSize = *flags.TextureSize
	}
	if *flags.Srid != 0 {
		opts.Srid = *flags.Srid
	}
	if *flags.TargetSrid != 0 {
		opts.TargetSrid = *flags.TargetSrid
	}
	if *flags.ZOffset != 0 {
		opts.ZOffset = *flags.ZOffset
	}
	if *flags.Ordering != "" {
		opts.Ordering = atlas.ParseOrdering(*flags.Ordering)
	}

	if msg, res := validateOptionsForCommandBuild(opts); !res {
		glog.Exit("Error parsing input parameters: " + msg)
	}

	defer timeTrack(time.Now(), "build")
	builder := pkg.NewBuilder(tools.NewStandardFileFinder(), source.NewTextReader(), std_algorithm_manager.NewAlgorithmManager(opts, nil))
	summaries, err := builder.RunBuilder(opts)
	if err != nil {
		glog.Exit("Error while building: ", err)
	}
	tools.LogOutput("Build Completed,", len(summaries), "atlases written to", opts.Output)
}

// Validates the input options provided to the command line tool checking
// that input and output folders/files exist
func validateOptionsForCommandBuild(opts *atlas.Options) (string, bool) {
	if opts.Input == "" {
		return "Input file/folder is required", false
	}
	if _, err := os.Stat(opts.Input); os.IsNotExist(err) {
		return "Input file/folder not found", false
	}
	if opts.Output == "" {
		return "Output folder is required", false
	}
	if err := opts.Validate(); err != nil {
		return err.Error(), false
	}

	return "", true
}

func validateAtlasFlags(flags *tools.AtlasFlags) (string, bool) {
	if *flags.Input == "" {
		return "Atlas folder is required", false
	}
	if info, err := os.Stat(tools.ResolvePath(*flags.Input)); err != nil || !info.IsDir() {
		return "Atlas folder not found", false
	}
	if *flags.TextureSize != 0 {
		if err := atlas.ValidateTextureSize(*flags.TextureSize); err != nil {
			return err.Error(), false
		}
	}
	return "", true
}

// Algorithm manager of the commands reading an atlas, configured by the classification section
func readerAlgorithmManager(cfg *config.Config) algorithm_manager.AlgorithmManager {
	filter, err := cfg.ProximityFilter()
	if err != nil {
		glog.Exit("Error parsing configuration: ", err)
	}
	opts := atlas.DefaultOptions()
	cfg.ApplyToAtlasOptions(opts)
	return std_algorithm_manager.NewAlgorithmManager(opts, filter)
}

func mainCommandVerify(args []string) {
	flags := tools.ParseFlagsForCommandVerify(args)
	if msg, res := validateAtlasFlags(&flags.AtlasFlags); !res {
		glog.Exit("Error parsing input parameters: " + msg)
	}
	cfg := loadConfig(*flags.Config)

	report, err := pkg.NewAtlasVerify(readerAlgorithmManager(cfg)).RunVerify(tools.ResolvePath(*flags.Input), *flags.Name, *flags.TextureSize)
	if err != nil {
		glog.Exit("Verification failed: ", err)
	}
	fmt.Println(tools.FmtJSONString(report))
}

func mainCommandRender(args []string) {
	flags := tools.ParseFlagsForCommandRender(args)
	if msg, res := validateAtlasFlags(&flags.AtlasFlags); !res {
		glog.Exit("Error parsing input parameters: " + msg)
	}
	cfg := loadConfig(*flags.Config)

	state, err := cfg.RenderState()
	if err != nil {
		glog.Exit("Error parsing configuration: ", err)
	}
	if *flags.RenderMode != "" {
		if state.Mode, err = classification.ParseRenderMode(*flags.RenderMode); err != nil {
			glog.Exit("Error parsing input parameters: ", err)
		}
	}

	opts := &pkg.RenderOptions{
		Input:           tools.ResolvePath(*flags.Input),
		Name:            *flags.Name,
		TextureSize:     *flags.TextureSize,
		Polygons:        tools.ResolvePath(*flags.Polygons),
		Output:          tools.ResolvePath(*flags.Output),
		RenderState:     state,
		ResampleSpacing: cfg.Classification.ResampleSpacing,
	}

	defer timeTrack(time.Now(), "render")
	summary, err := pkg.NewAtlasRender(readerAlgorithmManager(cfg)).RunRender(opts)
	if err != nil {
		glog.Exit("Error while rendering: ", err)
	}
	tools.LogOutput("Render Completed:", summary.Texture, summary.Preview)
}

func mainCommandServe(args []string) {
	flags := tools.ParseFlagsForCommandServe(args)
	if msg, res := validateAtlasFlags(&flags.AtlasFlags); !res {
		glog.Exit("Error parsing input parameters: " + msg)
	}
	cfg := loadConfig(*flags.Config)
	printLogo()

	state, err := cfg.RenderState()
	if err != nil {
		glog.Exit("Error parsing configuration: ", err)
	}
	serverOptions := rpc.DefaultServerOptions()
	cfg.ApplyToServerOptions(&serverOptions)
	if *flags.Address != "" {
		serverOptions.Address = *flags.Address
	}

	opts := &pkg.ServeOptions{
		Input:       tools.ResolvePath(*flags.Input),
		Name:        *flags.Name,
		TextureSize: *flags.TextureSize,
		SessionOptions: engine.SessionOptions{
			RenderState:     state,
			ResampleSpacing: cfg.Classification.ResampleSpacing,
		},
		ServerOptions: serverOptions,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pkg.NewAtlasServe(readerAlgorithmManager(cfg)).RunServe(ctx, opts); err != nil {
		glog.Exit("Error while serving: ", err)
	}
	tools.LogOutput("Server stopped")
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("pointcloud_atlas packs point files into GPU texture atlases and serves an interactive classification engine over them")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Usage: pointcloud_atlas [global flags] build|verify|render|serve [command flags]")
	fmt.Println("Run a command with -help to list its flags.")
	fmt.Println("")
	fmt.Println("Global flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
