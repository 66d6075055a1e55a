package main

import (
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	"git.solver4all.com/azaryc2s/flp"
)

func main() {
	if len(os.Args) < 2 {
		log.Printf("No arguments passed!")
		return
	}
	dirName := os.Args[1]
	dir, err := os.ReadDir(dirName)
	if err != nil {
		log.Printf("Couldn't open directory %s: %s\n", os.Args[1], err.Error())
		return
	}
	fmt.Printf("Name,Facilities,Points,Cap,Status,Optimal,Open,FixedCost,VariableCost,TotalCost,Gap,Time,Valid,Comment\n")
	for _, f := range dir {
		fileName := dirName + "/" + f.Name()
		if !strings.HasSuffix(fileName, ".json") {
			continue
		}
		inst, err := flp.ReadInstance(fileName)
		if err != nil {
			log.Printf("Couldn't read %s: %s\n", f.Name(), err.Error())
			return
		}
		ds, err := flp.NewDataset(inst.Facilities, inst.DemandPoints, inst.Lanes)
		if err != nil {
			log.Printf("Invalid instance %s: %s\n", inst.Name, err.Error())
			continue
		}
		if inst.Solution == nil && inst.Scenarios == nil {
			printRow(inst.Name, ds, "", "UNSOLVED", nil, "", "not solved yet")
			continue
		}
		if inst.Solution != nil {
			printSolution(inst.Name, ds, "", inst.Solution)
		}
		if inst.Scenarios != nil {
			for _, entry := range inst.Scenarios.Entries {
				capStr := fmt.Sprintf("%d", entry.Cap)
				if entry.Solution != nil {
					printSolution(inst.Name, ds, capStr, entry.Solution)
				} else {
					printRow(inst.Name, ds, capStr, entry.Status, nil, "", entry.Comment)
				}
			}
		}
	}
}

func printSolution(name string, ds *flp.Dataset, capStr string, sol *flp.FLPSolution) {
	comment := sol.Comment
	solValid, validComment := flp.CheckSolutionValidity(ds, sol)
	if !solValid {
		comment = strings.TrimSpace(comment + " " + validComment)
	}
	printRow(name, ds, capStr, sol.Status, sol, fmt.Sprintf("%t", solValid), comment)
}

func printRow(name string, ds *flp.Dataset, capStr string, status flp.Status, sol *flp.FLPSolution, valid string, comment string) {
	comment = strings.ReplaceAll(comment, ",", ";")
	if sol == nil {
		fmt.Printf("%s,%d,%d,%s,%s,false,,,,,,,,%s\n", name, ds.NumFacilities(), ds.NumDemandPoints(), capStr, status, comment)
		return
	}
	gap := sol.Gap
	if sol.LBound != 0 {
		gap = (sol.Obj - sol.LBound) / sol.LBound
	}
	gap = math.Round(gap*10000) / 10000
	fmt.Printf("%s,%d,%d,%s,%s,%t,%s,%.2f,%.2f,%.2f,%.4f,%s,%s,%s\n",
		name, ds.NumFacilities(), ds.NumDemandPoints(), capStr, sol.Status, sol.Optimal,
		strings.Join(sol.Open, ";"), sol.FixedCost, sol.VariableCost, sol.TotalCost,
		gap, sol.Time, valid, comment)
}
