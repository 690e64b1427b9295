package main

import (
	"context"
	"fmt"
	"log"

	"github.com/mhaugen/bondlib/bond"
	"github.com/mhaugen/bondlib/marketdata"
)

func main() {
	crv, err := marketdata.SampleCurve()
	if err != nil {
		log.Fatal(err)
	}
	recs, err := marketdata.SampleBonds()
	if err != nil {
		log.Fatal(err)
	}

	var inputs []bond.Input
	for _, rec := range recs {
		terms, err := rec.Terms()
		if err != nil {
			log.Fatal(err)
		}
		inputs = append(inputs, bond.Input{
			Terms:      terms,
			Valuation:  crv.AsOf(),
			Projection: crv,
			CleanPrice: rec.CleanPrice.InexactFloat64(),
		})
	}

	for _, item := range bond.AnalyzeAll(context.Background(), inputs, bond.BatchOptions{}) {
		if item.Err != nil {
			fmt.Printf("%-22s error: %v\n", item.ID, item.Err)
			continue
		}
		res := item.Result
		fmt.Printf("%-22s dirty %8.4f  ytm %7.4f%%  z %8.2fbp  mod-dur %6.3f\n",
			res.ID, res.DirtyPrice.Value, res.YTM.Value, res.ZSpread.Value, res.ModifiedDuration.Value)
		if res.WorstCall != nil {
			fmt.Printf("%-22s worst call %s @ %.3f  ytw %7.4f%%\n",
				"", res.WorstCall.CallDate.Format("2006-01-02"), res.WorstCall.CallPrice, res.WorstCall.YTM.Value)
		}
	}
}
