package cmd

import (
	"fmt"

	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/internal/util"
	"github.com/edp1096/toy-circuit/pkg/analysis"
	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/rules"
)

// nodeLabels names each node after its first port, "R1.n", so tables do
// not show raw union-find keys. Ground stays "0".
func nodeLabels(components []circuit.Component, wires []circuit.Wire) map[string]string {
	g := circuit.Build(components, wires)
	labels := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == consts.GroundNodeID || len(n.Ports) == 0 {
			labels[n.ID] = n.ID
			continue
		}
		labels[n.ID] = n.Ports[0].ComponentID + "." + n.Ports[0].PortID
	}
	return labels
}

func label(labels map[string]string, id string) string {
	if l, ok := labels[id]; ok {
		return l
	}
	return id
}

func printViolations(vs []rules.Violation) {
	if len(vs) == 0 {
		return
	}
	fmt.Println("\nDesign Rules:")
	fmt.Println("-------------")
	for _, v := range vs {
		fmt.Printf("[%-7s] %s %v: %s\n", v.Severity, v.RuleID, v.ComponentIDs, v.Message)
		if v.Recommendation != "" {
			fmt.Printf("          -> %s\n", v.Recommendation)
		}
	}
}

func printDC(res *analysis.DCResult, labels map[string]string) {
	fmt.Println("\nNode Voltages:")
	for _, id := range util.SortedKeys(res.NodeVoltages) {
		fmt.Printf("V(%s) = %s\n", label(labels, id), util.FormatValueFactor(res.NodeVoltages[id], "V"))
	}

	fmt.Println("\nBranch Currents:")
	for _, id := range util.SortedKeys(res.BranchCurrents) {
		fmt.Printf("I(%s) = %s\n", id, util.FormatValueFactor(res.BranchCurrents[id], "A"))
	}

	if len(res.MeterReadings) > 0 {
		fmt.Println("\nMeters:")
		for _, id := range util.SortedKeys(res.MeterReadings) {
			fmt.Printf("%s = %g\n", id, res.MeterReadings[id])
		}
	}
	if len(res.JunctionStates) > 0 {
		fmt.Println("\nJunctions:")
		for _, id := range util.SortedKeys(res.JunctionStates) {
			fmt.Printf("%s %s\n", id, res.JunctionStates[id])
		}
	}
	if len(res.LogicLevels) > 0 {
		fmt.Println("\nLogic Outputs:")
		for _, id := range util.SortedKeys(res.LogicLevels) {
			fmt.Printf("%s = %s\n", id, res.LogicLevels[id])
		}
		if !res.LogicSettled {
			fmt.Println("warning: gate outputs did not settle")
		}
	}
	if !res.Converged {
		fmt.Printf("\nwarning: junction iteration did not converge after %d passes\n", res.Iterations)
	}
}

func printTransient(times []float64, voltages, currents map[string][]float64, labels map[string]string) {
	fmt.Printf("\nTransient Analysis Results (%d time points):\n", len(times))
	printTransientHeader()

	for i, t := range times {
		v := make(map[string]float64, len(voltages))
		for id, hist := range voltages {
			v[id] = hist[i]
		}
		c := make(map[string]float64, len(currents))
		for id, hist := range currents {
			c[id] = hist[i]
		}
		printPoint(t, v, c, labels)
	}
}

func printTransientHeader() {
	fmt.Println("Time        Node Voltages        Branch Currents")
	fmt.Println("------------------------------------------------")
}

func printPoint(t float64, voltages, currents map[string]float64, labels map[string]string) {
	fmt.Printf("%9s  ", util.FormatValueFactor(t, "s"))

	// Node voltage
	for _, id := range util.SortedKeys(voltages) {
		if id == consts.GroundNodeID {
			continue
		}
		fmt.Printf("V(%s)=%s  ", label(labels, id), util.FormatValueFactor(voltages[id], "V"))
	}
	// Branch current
	for _, id := range util.SortedKeys(currents) {
		fmt.Printf("I(%s)=%s  ", id, util.FormatValueFactor(currents[id], "A"))
	}
	fmt.Println()
}

func printAC(res *analysis.ACSweepResult, labels map[string]string) {
	fmt.Printf("\nAC Analysis Results (%d frequency points):\n", len(res.FrequencyPoints))
	fmt.Println("Frequency      Node Voltages (Magnitude/Phase)        Branch Currents (Magnitude/Phase)")
	fmt.Println("-----------------------------------------------------------------------------")

	for _, pt := range res.FrequencyPoints {
		fmt.Printf("%-13s", util.FormatFrequency(pt.Frequency))

		// Node voltage
		for _, id := range util.SortedKeys(pt.NodeVoltages) {
			if id == consts.GroundNodeID {
				continue
			}
			v := pt.NodeVoltages[id]
			fmt.Printf("%s  ", util.FormatMagnitudePhase("V("+label(labels, id)+")", v.Magnitude, v.Phase))
		}
		// Branch current
		for _, id := range util.SortedKeys(pt.BranchCurrents) {
			i := pt.BranchCurrents[id]
			fmt.Printf("%s  ", util.FormatMagnitudePhase("I("+id+")", i.Magnitude, i.Phase))
		}
		fmt.Println()
	}

	if len(res.Resonances) > 0 {
		fmt.Println("\nResonances:")
		for _, r := range res.Resonances {
			fmt.Printf("%-8s %-8s f=%s Q=%.3g BW=%s\n", r.ComponentID, r.Type,
				util.FormatFrequency(r.Frequency), r.QFactor, util.FormatValueFactor(r.Bandwidth, "Hz"))
		}
	}
}

func printDCSweep(res *analysis.DCSweepResult, sources []analysis.SweepSource, labels map[string]string) {
	fmt.Printf("\nDC Sweep Analysis Results (%d points):\n", len(res.Sweep[0]))
	fmt.Println("Sweep Values    Node Voltages        Branch Currents")
	fmt.Println("------------------------------------------------")

	voltageNames := util.SortedKeys(res.NodeVoltages)
	currentNames := util.SortedKeys(res.BranchCurrents)
	for i := range res.Sweep[0] {
		for k, src := range sources {
			fmt.Printf("%s=%-9s  ", src.SourceID, util.FormatValueFactor(res.Sweep[k][i], "V"))
		}
		for _, id := range voltageNames {
			if id == consts.GroundNodeID {
				continue
			}
			fmt.Printf("V(%s)=%s  ", label(labels, id), util.FormatValueFactor(res.NodeVoltages[id][i], "V"))
		}
		for _, id := range currentNames {
			fmt.Printf("I(%s)=%s  ", id, util.FormatValueFactor(res.BranchCurrents[id][i], "A"))
		}
		fmt.Println()
	}
}
