package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/eikonal-bridge/dee/internal/analysis"
	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/bridge"
	"github.com/eikonal-bridge/dee/internal/eikonal"
	"github.com/eikonal-bridge/dee/internal/export"
	"github.com/eikonal-bridge/dee/internal/logger"
	"github.com/eikonal-bridge/dee/internal/merit"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/optim"
	"github.com/eikonal-bridge/dee/internal/prescription"
	"github.com/eikonal-bridge/dee/internal/raytrace"
	"github.com/eikonal-bridge/dee/internal/storage"
	"github.com/eikonal-bridge/dee/internal/study"
	"github.com/eikonal-bridge/dee/internal/tolerance"
	"github.com/eikonal-bridge/dee/internal/toolio"
	"github.com/eikonal-bridge/dee/internal/viz"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	dataDir    string
	logLevel   string
	logJSON    bool
	logSource  bool
	wavelength float64
	backend    string
	// ray selection
	fieldAngle float64
	pupilX     float64
	pupilY     float64
	// sampling
	rings   int
	rayN    int
	density int
	sampler string
	seed    int64
	// gradients probe an off-axis pupil point by default
	gradPy float64
	// fans
	sagittal bool
	opdFan   bool
	// analyze
	showMTF bool
	psfGrid int
	// optimize
	optimizerName string
	maxIters      int
	eflTarget     float64
	liveView      bool
	saveRun       bool
	// tolerance
	trials    int
	spread    float64
	uniform   bool
	threshold float64
	// sweep
	varIndex   int
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	// phase
	sweepLo     float64
	sweepHi     float64
	fringeSteps int
	armDelta    float64
	// export
	format  string
	outPath string
	// plot
	asJSON bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dee",
		Short: "differentiable eikonal engine for optical design",
		Long: "dee traces rays through lens prescriptions, differentiates the optical\n" +
			"path length with respect to design parameters, optimizes designs against\n" +
			"image-quality merit functions, and bridges path length to quantum phase.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Setup(logLevel, logJSON, logSource)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dee", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")
	rootCmd.PersistentFlags().BoolVar(&logSource, "log-source", false, "log caller locations")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in prescriptions",
		RunE:  listPresets,
	}

	showCmd := &cobra.Command{
		Use:   "show [design]",
		Short: "print a prescription and its first-order properties",
		Args:  cobra.ExactArgs(1),
		RunE:  showDesign,
	}
	showCmd.Flags().Float64Var(&wavelength, "wl", 0, "wavelength override (µm)")

	traceCmd := &cobra.Command{
		Use:   "trace [design]",
		Short: "trace one ray and report W",
		Args:  cobra.ExactArgs(1),
		RunE:  traceRay,
	}
	traceCmd.Flags().Float64Var(&fieldAngle, "field", 0, "field angle (deg)")
	traceCmd.Flags().Float64Var(&pupilX, "px", 0, "normalized pupil x")
	traceCmd.Flags().Float64Var(&pupilY, "py", 0, "normalized pupil y")
	traceCmd.Flags().Float64Var(&wavelength, "wl", 0, "wavelength override (µm)")

	gradCmd := &cobra.Command{
		Use:   "grad [design]",
		Short: "gradient of W with respect to the design variables",
		Args:  cobra.ExactArgs(1),
		RunE:  gradRay,
	}
	gradCmd.Flags().Float64Var(&fieldAngle, "field", 0, "field angle (deg)")
	gradCmd.Flags().Float64Var(&pupilX, "px", 0, "normalized pupil x")
	gradCmd.Flags().Float64Var(&gradPy, "py", 0.7, "normalized pupil y")
	gradCmd.Flags().Float64Var(&wavelength, "wl", 0, "wavelength override (µm)")
	gradCmd.Flags().StringVar(&backend, "backend", "", "gradient backend (ad, fd)")

	hessianCmd := &cobra.Command{
		Use:   "hessian [design]",
		Short: "Hessian of W with respect to the design variables",
		Args:  cobra.ExactArgs(1),
		RunE:  hessianRay,
	}
	hessianCmd.Flags().Float64Var(&fieldAngle, "field", 0, "field angle (deg)")
	hessianCmd.Flags().Float64Var(&pupilX, "px", 0, "normalized pupil x")
	hessianCmd.Flags().Float64Var(&gradPy, "py", 0.7, "normalized pupil y")
	hessianCmd.Flags().Float64Var(&wavelength, "wl", 0, "wavelength override (µm)")
	hessianCmd.Flags().StringVar(&backend, "backend", "", "gradient backend (ad, fd)")

	phaseCmd := &cobra.Command{
		Use:   "phase [design]",
		Short: "quantum phase of the eikonal and interferometer fringes",
		Args:  cobra.ExactArgs(1),
		RunE:  phaseRay,
	}
	phaseCmd.Flags().Float64Var(&fieldAngle, "field", 0, "field angle (deg)")
	phaseCmd.Flags().Float64Var(&pupilX, "px", 0, "normalized pupil x")
	phaseCmd.Flags().Float64Var(&pupilY, "py", 0, "normalized pupil y")
	phaseCmd.Flags().Float64Var(&wavelength, "wl", 0, "wavelength override (µm)")
	phaseCmd.Flags().Float64Var(&sweepLo, "sweep-lo", 0, "fringe sweep start (µm)")
	phaseCmd.Flags().Float64Var(&sweepHi, "sweep-hi", 0, "fringe sweep end (µm)")
	phaseCmd.Flags().IntVar(&fringeSteps, "steps", 80, "sweep samples")
	phaseCmd.Flags().Float64Var(&armDelta, "delta", 0.1, "offset applied to the first variable of the test arm")

	spotCmd := &cobra.Command{
		Use:   "spot [design]",
		Short: "spot diagram for one field",
		Args:  cobra.ExactArgs(1),
		RunE:  spotDiagram,
	}
	spotCmd.Flags().Float64Var(&fieldAngle, "field", 0, "field angle (deg)")
	spotCmd.Flags().IntVar(&rings, "rings", 6, "hexapolar rings")
	spotCmd.Flags().Float64Var(&wavelength, "wl", 0, "wavelength override (µm)")

	fanCmd := &cobra.Command{
		Use:   "fan [design]",
		Short: "transverse or OPD ray fan for one field",
		Args:  cobra.ExactArgs(1),
		RunE:  rayFan,
	}
	fanCmd.Flags().Float64Var(&fieldAngle, "field", 0, "field angle (deg)")
	fanCmd.Flags().IntVar(&rayN, "rays", 33, "rays across the pupil")
	fanCmd.Flags().BoolVar(&sagittal, "sagittal", false, "sagittal fan (default tangential)")
	fanCmd.Flags().BoolVar(&opdFan, "opd", false, "plot OPD in waves instead of transverse error")
	fanCmd.Flags().Float64Var(&wavelength, "wl", 0, "wavelength override (µm)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [design]",
		Short: "image-quality summary across all fields",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeDesign,
	}
	analyzeCmd.Flags().Float64Var(&wavelength, "wl", 0, "wavelength override (µm)")
	analyzeCmd.Flags().IntVar(&rings, "rings", 6, "hexapolar rings")
	analyzeCmd.Flags().BoolVar(&showMTF, "mtf", false, "plot MTF cuts for the axial field")
	analyzeCmd.Flags().IntVar(&psfGrid, "psf-grid", 64, "pupil grid for the PSF (power of two)")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [design]",
		Short: "drive the design variables to a merit minimum",
		Args:  cobra.ExactArgs(1),
		RunE:  optimizeDesign,
	}
	optimizeCmd.Flags().StringVar(&optimizerName, "optimizer", "lm", "optimizer (lm, descent, grid)")
	optimizeCmd.Flags().IntVar(&maxIters, "iters", 0, "iteration cap (0 keeps the optimizer default)")
	optimizeCmd.Flags().Float64Var(&eflTarget, "efl", 0, "focal length target (mm, 0 leaves it free)")
	optimizeCmd.Flags().StringVar(&sampler, "sampler", "hexapolar", "pupil sampler (hexapolar, grid, random)")
	optimizeCmd.Flags().IntVar(&density, "density", 3, "sampler density")
	optimizeCmd.Flags().Int64Var(&seed, "seed", 1, "sampler seed")
	optimizeCmd.Flags().Float64Var(&wavelength, "wl", 0, "wavelength override (µm)")
	optimizeCmd.Flags().StringVar(&backend, "backend", "", "gradient backend (ad, fd)")
	optimizeCmd.Flags().BoolVar(&liveView, "live", false, "watch the optimization in a TUI")
	optimizeCmd.Flags().BoolVar(&saveRun, "save", false, "persist the run under the data directory")

	toleranceCmd := &cobra.Command{
		Use:   "tolerance [design]",
		Short: "Monte Carlo tolerancing of the merit function",
		Args:  cobra.ExactArgs(1),
		RunE:  toleranceDesign,
	}
	toleranceCmd.Flags().IntVar(&trials, "trials", 200, "Monte Carlo trials")
	toleranceCmd.Flags().Float64Var(&spread, "spread", 1e-4, "perturbation spread per variable")
	toleranceCmd.Flags().BoolVar(&uniform, "uniform", false, "uniform ±spread instead of normal σ")
	toleranceCmd.Flags().Float64Var(&threshold, "threshold", 0, "merit pass threshold (0 = 2× nominal)")
	toleranceCmd.Flags().Int64Var(&seed, "seed", 1, "trial seed")
	toleranceCmd.Flags().Float64Var(&wavelength, "wl", 0, "wavelength override (µm)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [design]",
		Short: "scan one design variable and plot the spot size",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepDesign,
	}
	sweepCmd.Flags().IntVar(&varIndex, "var", 0, "variable index")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "scan start (0 with --max 0 spans the bounds)")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0, "scan end")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 40, "scan samples")
	sweepCmd.Flags().Float64Var(&wavelength, "wl", 0, "wavelength override (µm)")

	compareCmd := &cobra.Command{
		Use:   "compare [design]",
		Short: "compare gradient backends on one ray",
		Args:  cobra.ExactArgs(1),
		RunE:  compareBackends,
	}
	compareCmd.Flags().Float64Var(&fieldAngle, "field", 0, "field angle (deg)")
	compareCmd.Flags().Float64Var(&pupilX, "px", 0, "normalized pupil x")
	compareCmd.Flags().Float64Var(&gradPy, "py", 0.7, "normalized pupil y")
	compareCmd.Flags().Float64Var(&wavelength, "wl", 0, "wavelength override (µm)")

	benchCmd := &cobra.Command{
		Use:   "bench [design]",
		Short: "benchmark bundle tracing throughput",
		Args:  cobra.ExactArgs(1),
		RunE:  benchDesign,
	}
	benchCmd.Flags().Float64Var(&wavelength, "wl", 0, "wavelength override (µm)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run's merit history",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().BoolVar(&asJSON, "json", false, "dump the run as JSON instead")

	exportCmd := &cobra.Command{
		Use:   "export [design]",
		Short: "export a design (svg, codev, zmx, rsoft, json)",
		Args:  cobra.ExactArgs(1),
		RunE:  exportDesign,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "output format (svg, codev, zmx, rsoft, json)")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().Float64Var(&wavelength, "wl", 0, "wavelength override (µm)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dee %s (%s)\n", version, commit)
		},
	}

	rootCmd.AddCommand(presetsCmd, showCmd, traceCmd, gradCmd, hessianCmd, phaseCmd,
		spotCmd, fanCmd, analyzeCmd, optimizeCmd, toleranceCmd, sweepCmd, compareCmd,
		benchCmd, listCmd, plotCmd, exportCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// design resolves a preset name or prescription file and applies the
// wavelength override.
func design(name string) (*prescription.Prescription, error) {
	p, err := study.NewRegistry().GetDesign(name)
	if err != nil {
		return nil, err
	}
	if wavelength != 0 {
		p.Wavelength = wavelength
	}
	return p, nil
}

// tracer builds the nominal system and a tracer for it.
func tracer(p *prescription.Prescription) (*optics.SystemModel, *raytrace.Tracer, error) {
	sys, err := p.Nominal()
	if err != nil {
		return nil, nil, err
	}
	return sys, raytrace.New(sys, autodiff.Const(sys.Wavelength)), nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVARS\tSURFACES\tWL(µm)\tDESCRIPTION")
	for _, name := range prescription.ListPresets() {
		p := prescription.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\t%s\n",
			name, p.Dim(), len(p.Surfaces), p.Wavelength, p.Description)
	}
	return w.Flush()
}

func showDesign(cmd *cobra.Command, args []string) error {
	p, err := design(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s\n", p.Name, p.Description)
	fmt.Printf("wavelength: %.4f µm   EPD: %.2f mm   fields: %v deg\n\n", p.Wavelength, p.EPD, p.Fields)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SURF\tRADIUS\tTHICKNESS\tGLASS\tCONIC\tSEMIDIAM\tFLAGS")
	for i, s := range p.Surfaces {
		radius := "inf"
		if c := s.EffectiveCurvature(); c != 0 {
			radius = fmt.Sprintf("%.4f", 1/c)
		}
		var flags []string
		if s.Stop {
			flags = append(flags, "stop")
		}
		if s.Mirror {
			flags = append(flags, "mirror")
		}
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%s\t%g\t%.2f\t%s\n",
			i, radius, s.Thickness, s.Glass, s.Conic, s.SemiDiam, strings.Join(flags, ","))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	sys, _, err := tracer(p)
	if err != nil {
		return err
	}
	fo, err := optics.Paraxial(sys, autodiff.Const(sys.Wavelength))
	if err != nil {
		return err
	}
	fmt.Printf("\nEFL: %.4f mm   BFL: %.4f mm   f/%.2f   total track: %.4f mm\n",
		fo.EFL.Val, fo.BFL.Val, fo.FNum.Val, fo.TotalTrack.Val)

	if p.Dim() > 0 {
		fmt.Println("\nvariables:")
		lower, upper := p.Bounds()
		x0 := p.InitialParams()
		for i, v := range p.Variables {
			fmt.Printf("  p%d: surface %d %s = %.6f  [%g, %g]\n",
				i, v.Surface, v.Field, x0[i], lower[i], upper[i])
		}
	}
	return nil
}

func traceRay(cmd *cobra.Command, args []string) error {
	p, err := design(args[0])
	if err != nil {
		return err
	}
	sys, tr, err := tracer(p)
	if err != nil {
		return err
	}

	out, path, err := tr.TracePath(raytrace.Launch(sys, fieldAngle, pupilX, pupilY))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SURF\tX\tY\tZ")
	for _, pt := range path {
		label := fmt.Sprintf("%d", pt.Surface)
		switch pt.Surface {
		case -1:
			label = "obj"
		case sys.NumSurfaces():
			label = "img"
		}
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.6f\n", label, pt.X, pt.Y, pt.Z)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	wl := sys.Wavelength
	fmt.Printf("\nW = %.9f mm   (%.3f waves at %.4f µm)\n", out.OPL.Val, bridge.Waves(out.OPL.Val, wl), wl)
	fmt.Printf("phase = %.6f rad   wrapped = %.6f rad\n",
		bridge.Phase(out.OPL, wl).Val, bridge.Wrap(bridge.Phase(out.OPL, wl).Val))
	return nil
}

func gradRay(cmd *cobra.Command, args []string) error {
	p, err := design(args[0])
	if err != nil {
		return err
	}
	eng, err := eikonal.New(p.Builder(), eikonal.Config{Dim: p.Dim(), Backend: backend})
	if err != nil {
		return err
	}

	res, err := eng.Gradient(p.InitialParams(), eikonal.RaySpec{AngleDeg: fieldAngle, Px: pupilX, Py: gradPy})
	if err != nil {
		return err
	}

	fmt.Printf("W = %.9f mm   backend: %s\n\n", res.W, res.Backend)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAM\tVARIABLE\tdW/dp")
	for i, g := range res.Grad {
		v := p.Variables[i]
		fmt.Fprintf(w, "p%d\tsurface %d %s\t%+.9e\n", i, v.Surface, v.Field, g)
	}
	return w.Flush()
}

func hessianRay(cmd *cobra.Command, args []string) error {
	p, err := design(args[0])
	if err != nil {
		return err
	}
	eng, err := eikonal.New(p.Builder(), eikonal.Config{Dim: p.Dim(), Backend: backend})
	if err != nil {
		return err
	}

	res, err := eng.Hessian(p.InitialParams(), eikonal.RaySpec{AngleDeg: fieldAngle, Px: pupilX, Py: gradPy})
	if err != nil {
		return err
	}

	n := p.Dim()
	fmt.Printf("W = %.9f mm   backend: %s\n\ngradient:\n", res.W, res.Backend)
	for i, g := range res.Grad {
		fmt.Printf("  p%d: %+.9e\n", i, g)
	}
	fmt.Println("\nhessian:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i := 0; i < n; i++ {
		cells := make([]string, n)
		for j := 0; j < n; j++ {
			cells[j] = fmt.Sprintf("%+.6e", res.Hess[i*n+j])
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func phaseRay(cmd *cobra.Command, args []string) error {
	p, err := design(args[0])
	if err != nil {
		return err
	}
	eng, err := eikonal.New(p.Builder(), eikonal.Config{Dim: p.Dim()})
	if err != nil {
		return err
	}

	ray := eikonal.RaySpec{AngleDeg: fieldAngle, Px: pupilX, Py: pupilY}
	res, err := eng.Gradient(p.InitialParams(), ray)
	if err != nil {
		return err
	}
	ph := bridge.FromEikonal(res, p.Wavelength)

	fmt.Printf("W = %.9f mm at %.4f µm\n", res.W, p.Wavelength)
	fmt.Printf("phase = %.6f rad   wrapped = %.6f rad   %.3f waves\n", ph.Phi, ph.Wrapped, ph.Waves)
	for i, g := range ph.Grad {
		fmt.Printf("  dphi/dp%d = %+.6e rad\n", i, g)
	}

	if sweepLo <= 0 || sweepHi <= sweepLo {
		return nil
	}

	// Interferometer: test arm offset by delta on p0 against the nominal
	// reference arm.
	ref := p.Clone()
	ref.Variables = nil
	refBuilder := func(_ []autodiff.Jet) (*optics.SystemModel, error) {
		return ref.ToSystem(nil)
	}
	mz := bridge.NewMachZehnder(p.Builder(), refBuilder, p.Dim(), p.Wavelength)

	x := p.InitialParams().Clone()
	if len(x) > 0 {
		x[0] += armDelta
	}
	points, err := mz.Sweep(context.Background(), x, ray, sweepLo, sweepHi, fringeSteps)
	if err != nil {
		return err
	}

	bright := make([]float64, len(points))
	for i, pt := range points {
		bright[i] = pt.Bright
	}
	fmt.Println()
	fmt.Println(viz.SeriesPlot(bright,
		fmt.Sprintf("bright port vs wavelength [%.3f, %.3f] µm", sweepLo, sweepHi), 70, 12))
	return nil
}

func spotDiagram(cmd *cobra.Command, args []string) error {
	p, err := design(args[0])
	if err != nil {
		return err
	}
	_, tr, err := tracer(p)
	if err != nil {
		return err
	}

	spot, err := analysis.SpotDiagram(tr, fieldAngle, merit.HexapolarSample(rings))
	if err != nil {
		return err
	}

	canvas := viz.Scatter(spot.X, spot.Y, 40, 16, 0)
	fmt.Print(canvas.String())
	fmt.Printf("field %.2f deg   rms %.3f µm   geo %.3f µm   lost %d\n",
		spot.AngleDeg, spot.RMS*1e3, spot.GeoRadius*1e3, spot.Lost)
	return nil
}

func rayFan(cmd *cobra.Command, args []string) error {
	p, err := design(args[0])
	if err != nil {
		return err
	}
	_, tr, err := tracer(p)
	if err != nil {
		return err
	}

	var fan *analysis.Fan
	caption := "transverse error (mm) vs pupil"
	if opdFan {
		fan, err = analysis.OPDFan(tr, fieldAngle, rayN, sagittal)
		caption = "OPD (waves) vs pupil"
	} else {
		fan, err = analysis.TransverseFan(tr, fieldAngle, rayN, sagittal)
	}
	if err != nil {
		return err
	}

	plane := "tangential"
	if sagittal {
		plane = "sagittal"
	}
	fmt.Println(viz.SeriesPlot(fan.Value,
		fmt.Sprintf("%s %s, field %.2f deg", plane, caption, fieldAngle), 70, 14))
	if fan.Lost > 0 {
		fmt.Printf("%d rays vignetted\n", fan.Lost)
	}
	return nil
}

func analyzeDesign(cmd *cobra.Command, args []string) error {
	p, err := design(args[0])
	if err != nil {
		return err
	}
	sys, tr, err := tracer(p)
	if err != nil {
		return err
	}
	lambda := autodiff.Const(sys.Wavelength)

	fo, err := optics.Paraxial(sys, lambda)
	if err != nil {
		return err
	}
	fmt.Printf("%s at %.4f µm: EFL %.4f mm, f/%.2f\n\n", p.Name, sys.Wavelength, fo.EFL.Val, fo.FNum.Val)

	samples := merit.HexapolarSample(rings)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD(deg)\tRMS SPOT(µm)\tGEO(µm)\tLOST")
	for _, fld := range sys.Fields {
		spot, err := analysis.SpotDiagram(tr, fld.AngleDeg, samples)
		if err != nil {
			fmt.Fprintf(w, "%.2f\terror: %v\t\t\n", fld.AngleDeg, err)
			continue
		}
		fmt.Fprintf(w, "%.2f\t%.3f\t%.3f\t%d\n", fld.AngleDeg, spot.RMS*1e3, spot.GeoRadius*1e3, spot.Lost)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	wf := merit.NewWavefront(sys.Wavelength)
	strehl := merit.NewStrehl(sys.Wavelength)
	dist := merit.NewDistortion(fo.EFL)
	vig := merit.NewVignetting()
	if err := merit.Accumulate(tr, samples, wf, strehl, dist, vig); err != nil {
		return err
	}
	fmt.Printf("\nrms wavefront: %.4f waves   strehl: %.4f   distortion: %.3f%%   vignetting: %.1f%%\n",
		wf.RMS(), strehl.Value().Val, dist.Value().Val, 100*vig.Value().Val)

	if !showMTF {
		return nil
	}

	psf, err := analysis.ComputePSF(tr, 0, psfGrid)
	if err != nil {
		return err
	}
	mtf := analysis.ComputeMTF(psf)
	fmt.Printf("\npsf strehl: %.4f (pupil points %d open, %d lost)\n", psf.Strehl, psf.Open, psf.Lost)
	fmt.Println(viz.SeriesPlot(mtf.Tan, "tangential MTF vs normalized frequency", 70, 12))
	return nil
}

func optimizeDesign(cmd *cobra.Command, args []string) error {
	s := study.New(study.Config{
		Design:     args[0],
		Wavelength: wavelength,
		Backend:    backend,
		Optimizer:  optimizerName,
		Sampler:    sampler,
		Density:    density,
		Seed:       seed,
		MaxIters:   maxIters,
		EFLTarget:  eflTarget,
	})
	if err := s.Setup(); err != nil {
		return err
	}

	logger.Info("starting optimization",
		"design", s.Prescription().Name,
		"optimizer", optimizerName,
		"variables", s.Prescription().Dim())

	var rep *study.Report
	if liveView {
		err := viz.RunLive(context.Background(), s.Prescription().Name,
			func(ctx context.Context, progress func(optim.Iteration)) error {
				s.OnIteration(progress)
				var err error
				rep, err = s.Run(ctx)
				return err
			})
		if err != nil {
			return err
		}
	} else {
		var err error
		rep, err = s.Run(context.Background())
		if err != nil {
			return err
		}
	}

	fmt.Printf("merit: %.6e -> %.6e in %d iterations (%v)\n",
		rep.InitCost, rep.FinalCost, rep.Iterations, rep.Elapsed.Round(time.Millisecond))
	if rep.Converged {
		fmt.Println("converged")
	} else {
		fmt.Println("stopped at the iteration cap")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAM\tINITIAL\tFINAL")
	for i := range rep.Final {
		fmt.Fprintf(w, "p%d\t%.6f\t%.6f\n", i, rep.Initial[i], rep.Final[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	keys := make([]string, 0, len(rep.Metrics))
	for k := range rep.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Println("\nmetrics:")
	for _, k := range keys {
		fmt.Printf("  %s: %.6f\n", k, rep.Metrics[k])
	}

	if !saveRun {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	spots, err := finalSpots(s.Prescription(), rep.Final)
	if err != nil {
		logger.Warn("final spot diagrams failed", "err", err)
	}
	runID, err := st.Save(&storage.Record{
		Meta: storage.RunMetadata{
			Design:     rep.Design,
			Seed:       seed,
			Wavelength: rep.Wavelength,
			Backend:    rep.Backend,
			Optimizer:  rep.Optimizer,
			Variables:  rep.Variables,
			InitCost:   rep.InitCost,
			FinalCost:  rep.FinalCost,
			Iterations: rep.Iterations,
			Converged:  rep.Converged,
			Metrics:    rep.Metrics,
		},
		History: rep.History,
		Spots:   spots,
	})
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

// finalSpots traces per-field spot diagrams at the optimized parameters.
func finalSpots(p *prescription.Prescription, final eikonal.Params) ([]*analysis.Spot, error) {
	sys, err := p.ToSystem(autodiff.Lift(final))
	if err != nil {
		return nil, err
	}
	tr := raytrace.New(sys, autodiff.Const(sys.Wavelength))
	samples := merit.HexapolarSample(6)

	var spots []*analysis.Spot
	for _, fld := range sys.Fields {
		sp, err := analysis.SpotDiagram(tr, fld.AngleDeg, samples)
		if err != nil {
			continue
		}
		spots = append(spots, sp)
	}
	return spots, nil
}

func toleranceDesign(cmd *cobra.Command, args []string) error {
	p, err := design(args[0])
	if err != nil {
		return err
	}
	if p.Dim() == 0 {
		return fmt.Errorf("design %q declares no variables to perturb", p.Name)
	}

	fn, err := merit.NewFunction(p.Builder(), p.Dim(), merit.Config{})
	if err != nil {
		return err
	}

	x0 := p.InitialParams()
	nominal, err := fn.Eval(x0)
	if err != nil {
		return err
	}
	if threshold == 0 {
		threshold = 2 * nominal
	}

	dist := tolerance.Normal
	if uniform {
		dist = tolerance.Uniform
	}
	perts := make([]tolerance.Perturbation, p.Dim())
	for i := range perts {
		perts[i] = tolerance.Perturbation{Index: i, Dist: dist, Spread: spread}
	}

	logger.Info("running tolerance study", "design", p.Name, "trials", trials, "spread", spread)

	summary, _, err := tolerance.Run(context.Background(), x0, perts,
		func(x []float64) (float64, error) { return fn.Eval(x) },
		tolerance.Config{Trials: trials, Seed: seed, Threshold: threshold})
	if err != nil {
		return err
	}

	fmt.Printf("nominal merit: %.6e   threshold: %.6e\n\n", summary.Nominal, threshold)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "trials\t%d\n", summary.Trials)
	fmt.Fprintf(w, "failed\t%d\n", summary.Failed)
	fmt.Fprintf(w, "mean\t%.6e\n", summary.Mean)
	fmt.Fprintf(w, "std\t%.6e\n", summary.Std)
	fmt.Fprintf(w, "min\t%.6e\n", summary.Min)
	fmt.Fprintf(w, "p10\t%.6e\n", summary.P10)
	fmt.Fprintf(w, "p50\t%.6e\n", summary.P50)
	fmt.Fprintf(w, "p90\t%.6e\n", summary.P90)
	fmt.Fprintf(w, "max\t%.6e\n", summary.Max)
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nyield: %s %.1f%%\n", viz.ProgressBar(summary.Yield, 40), 100*summary.Yield)
	if len(summary.Values) > 1 {
		fmt.Println()
		fmt.Println(viz.SeriesPlot(summary.Values, "sorted trial merits", 70, 10))
	}
	return nil
}

func sweepDesign(cmd *cobra.Command, args []string) error {
	p, err := design(args[0])
	if err != nil {
		return err
	}
	if varIndex < 0 || varIndex >= p.Dim() {
		return fmt.Errorf("variable index %d outside %d variables", varIndex, p.Dim())
	}

	lo, hi := sweepMin, sweepMax
	if lo == 0 && hi == 0 {
		lower, upper := p.Bounds()
		lo, hi = lower[varIndex], upper[varIndex]
		if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			x0 := p.InitialParams()[varIndex]
			span := math.Max(math.Abs(x0)*0.5, 1e-3)
			lo, hi = x0-span, x0+span
		}
	}

	samples := merit.HexapolarSample(4)
	points, err := analysis.Sweep(context.Background(), p.Builder(), p.InitialParams(),
		varIndex, lo, hi, sweepSteps,
		func(sys *optics.SystemModel) (float64, error) {
			tr := raytrace.New(sys, autodiff.Const(sys.Wavelength))
			spot, err := analysis.SpotDiagram(tr, 0, samples)
			if err != nil {
				return 0, err
			}
			return spot.RMS, nil
		})
	if err != nil {
		return err
	}

	data := make([]float64, 0, len(points))
	failed := 0
	for _, pt := range points {
		if pt.Err != nil {
			failed++
			continue
		}
		data = append(data, pt.Metric*1e3)
	}
	if len(data) == 0 {
		return fmt.Errorf("every sweep point failed to evaluate")
	}

	v := p.Variables[varIndex]
	fmt.Println(viz.SeriesPlot(data,
		fmt.Sprintf("rms spot (µm) vs surface %d %s in [%g, %g]", v.Surface, v.Field, lo, hi), 70, 14))
	if failed > 0 {
		fmt.Printf("%d points failed to evaluate\n", failed)
	}
	return nil
}

func compareBackends(cmd *cobra.Command, args []string) error {
	p, err := design(args[0])
	if err != nil {
		return err
	}
	eng, err := eikonal.New(p.Builder(), eikonal.Config{Dim: p.Dim()})
	if err != nil {
		return err
	}

	ray := eikonal.RaySpec{AngleDeg: fieldAngle, Px: pupilX, Py: gradPy}
	fn, trap := eng.WFunc(ray)
	x0 := p.InitialParams()

	type row struct {
		name    string
		grad    []float64
		elapsed time.Duration
	}
	var rows []row
	for _, name := range autodiff.Names() {
		b, err := autodiff.New(name)
		if err != nil {
			return err
		}
		start := time.Now()
		grad, err := b.Gradient(fn, x0)
		elapsed := time.Since(start)
		if err != nil {
			if *trap != nil {
				return *trap
			}
			return err
		}
		rows = append(rows, row{name: name, grad: grad, elapsed: elapsed})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "BACKEND"
	for i := range x0 {
		header += fmt.Sprintf("\tdW/dp%d", i)
	}
	header += "\tTIME"
	fmt.Fprintln(w, header)
	for _, r := range rows {
		line := r.name
		for _, g := range r.grad {
			line += fmt.Sprintf("\t%+.9e", g)
		}
		line += fmt.Sprintf("\t%v", r.elapsed)
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(rows) == 2 {
		maxRel := 0.0
		for i := range x0 {
			denom := math.Max(math.Abs(rows[0].grad[i]), 1e-12)
			rel := math.Abs(rows[0].grad[i]-rows[1].grad[i]) / denom
			if rel > maxRel {
				maxRel = rel
			}
		}
		fmt.Printf("\nmax relative disagreement: %.3e\n", maxRel)
	}
	return nil
}

func benchDesign(cmd *cobra.Command, args []string) error {
	p, err := design(args[0])
	if err != nil {
		return err
	}
	sys, tr, err := tracer(p)
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %s (%d surfaces)\n\n", p.Name, sys.NumSurfaces())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RAYS\tTRACED\tTIME\tRAYS/SEC")

	for _, n := range []int{100, 1000, 10000} {
		rays := make([]raytrace.Ray, 0, n)
		for i := 0; i < n; i++ {
			px := -1 + 2*float64(i%100)/99
			py := -1 + 2*float64(i/100%100)/99
			if px*px+py*py > 1 {
				px, py = px*0.7, py*0.7
			}
			rays = append(rays, raytrace.Launch(sys, 0, px, py))
		}

		start := time.Now()
		res, err := raytrace.TraceBundle(context.Background(), tr, rays)
		elapsed := time.Since(start)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\n",
			n, res.Traced, elapsed, float64(n)/elapsed.Seconds())
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDESIGN\tTIME\tOPTIMIZER\tITERS\tMERIT\tCONVERGED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4e\t%t\n",
			run.ID,
			run.Design,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Optimizer,
			run.Iterations,
			run.FinalCost,
			run.Converged,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)

	if asJSON {
		return st.ExportJSON(os.Stdout, args[0])
	}

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	costs, _, err := st.LoadHistory(args[0])
	if err != nil {
		return err
	}
	if len(costs) == 0 {
		return fmt.Errorf("run %s has no history to plot", args[0])
	}

	fmt.Printf("run: %s   design: %s   optimizer: %s\n\n", meta.ID, meta.Design, meta.Optimizer)
	fmt.Println(viz.CostPlot(costs, 70, 14))
	fmt.Printf("\nmerit: %.6e -> %.6e\n", meta.InitCost, meta.FinalCost)
	return nil
}

func exportDesign(cmd *cobra.Command, args []string) error {
	p, err := design(args[0])
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case "codev":
		data = []byte(toolio.CodeV(p))
	case "zmx":
		data = []byte(toolio.Zemax(p))
	case "rsoft":
		st, err := toolio.RSoftFromPrescription(p)
		if err != nil {
			return err
		}
		data = []byte(st.Render())
	case "json":
		data, err = toolio.JSON(p)
		if err != nil {
			return err
		}
	case "svg":
		svg, err := layoutSVG(p)
		if err != nil {
			return err
		}
		data = []byte(svg)
	default:
		return fmt.Errorf("unknown format %q (svg, codev, zmx, rsoft, json)", format)
	}

	if outPath == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes)\n", outPath, len(data))
	return nil
}

// layoutSVG renders the lens layout with three rays per field.
func layoutSVG(p *prescription.Prescription) (string, error) {
	sys, tr, err := tracer(p)
	if err != nil {
		return "", err
	}

	var paths [][]raytrace.PathPoint
	for _, fld := range sys.Fields {
		for _, py := range []float64{-1, 0, 1} {
			_, path, err := tr.TracePath(raytrace.Launch(sys, fld.AngleDeg, 0, py))
			if err != nil {
				continue
			}
			paths = append(paths, path)
		}
	}
	return export.LayoutSVG(sys, paths, 800), nil
}
