package census

import (
	"errors"
	"fmt"
	"log"
	"os"

	d "github.com/invertedv/censusdf"
	"github.com/invertedv/censusdf/config"
)

// Need says which tables a job reads.
type Need struct {
	Typology          bool
	Components        bool
	AgeSex            bool // every vintage's age/sex table; optional ones may be absent
	CurrentAgeSexOnly bool
}

// Sources holds the loaded tables, keyed by vintage name. Components and age/sex tables carry
// locale_type when the typology was loaded.
type Sources struct {
	Typology   *d.DF
	Components map[string]*d.DF
	AgeSex     map[string]*d.DF
}

// LoadSources reads what need asks for. A missing file is fatal unless it is an optional age/sex table,
// in which case it is logged and left out.
func LoadSources(cfg *config.Config, need Need) (*Sources, error) {
	enc, e := d.EncodingByName(cfg.Encoding)
	if e != nil {
		return nil, e
	}

	f := d.NewFiles()
	f.Encoding = enc

	src := &Sources{Components: make(map[string]*d.DF), AgeSex: make(map[string]*d.DF)}

	if need.Typology {
		log.Printf("loading county typology %s", cfg.Typology)
		if src.Typology, e = LoadTypology(f, cfg.Typology); e != nil {
			return nil, e
		}
		log.Printf("%d counties in typology", src.Typology.RowCount())
	}

	for _, v := range cfg.Vintages {
		if need.Components {
			log.Printf("loading %s components %s", v.Name, v.Components)
			df, ex := LoadComponents(f, v.Components)
			if ex != nil {
				return nil, ex
			}

			if src.Components[v.Name], ex = src.classify(df); ex != nil {
				return nil, ex
			}
		}

		wantAgeSex := need.AgeSex || (need.CurrentAgeSexOnly && v.Name == cfg.Current)
		if !wantAgeSex {
			continue
		}

		log.Printf("loading %s age/sex %s", v.Name, v.AgeSex)
		df, ex := LoadAgeSex(f, v.AgeSex)
		if ex != nil {
			if v.AgeSexOptional && v.Name != cfg.Current && errors.Is(ex, os.ErrNotExist) {
				log.Printf("no %s age/sex file, skipping its fertility rates", v.Name)
				continue
			}

			return nil, ex
		}

		if src.AgeSex[v.Name], ex = src.classify(df); ex != nil {
			return nil, ex
		}
		log.Printf("%s age/sex: %d rows", v.Name, df.RowCount())
	}

	if need.AgeSex || need.CurrentAgeSexOnly {
		if _, ok := src.AgeSex[cfg.Current]; !ok {
			return nil, fmt.Errorf("no age/sex table for current vintage %s", cfg.Current)
		}
	}

	return src, nil
}

func (s *Sources) classify(df *d.DF) (*d.DF, error) {
	if s.Typology == nil {
		return df, nil
	}

	return Classify(df, s.Typology)
}
