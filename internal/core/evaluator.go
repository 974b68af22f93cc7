package core

import "pedigreecore/pkg/domain"

// TransmissionProbability is the probability that a parent with gene-copy-count g
// passes the allele of interest to a child, given mutation rate mu.
func TransmissionProbability(g domain.GeneCount, mu float64) float64 {
	switch g {
	case domain.GeneNone:
		return mu
	case domain.GeneOne:
		return 0.5
	default:
		return 1 - mu
	}
}

// ChildGeneDistribution combines two independent per-parent transmission
// probabilities into P(child gene-copy-count).
func ChildGeneDistribution(fromMother, fromFather float64) domain.GeneDistribution {
	return domain.GeneDistribution{
		(1 - fromMother) * (1 - fromFather),
		fromMother*(1-fromFather) + fromFather*(1-fromMother),
		fromMother * fromFather,
	}
}

// InheritanceDistribution returns P(child gene-copy-count | parents' counts).
func InheritanceDistribution(mother, father domain.GeneCount, mu float64) domain.GeneDistribution {
	return ChildGeneDistribution(TransmissionProbability(mother, mu), TransmissionProbability(father, mu))
}

// JointProbability returns the probability of world w under model: the product
// over individuals, folded in pedigree order, of P(gene | parents or prior) and
// P(trait | gene). The model is assumed valid; Engine validates it once per run.
func JointProbability(p *domain.Pedigree, model domain.Model, w domain.World) (float64, error) {
	if err := w.Covers(p); err != nil {
		return 0, err
	}
	prob := 1.0
	for i := 0; i < p.Len(); i++ {
		g := w.Genes[i]
		var geneP float64
		if p.IsFounder(i) {
			geneP = model.FounderPrior.Of(g)
		} else {
			mi, fi := p.ParentIndexes(i)
			geneP = InheritanceDistribution(w.Genes[mi], w.Genes[fi], model.MutationRate).Of(g)
		}
		prob *= geneP * model.Emission.Probability(g, w.Traits[i])
	}
	return prob, nil
}
