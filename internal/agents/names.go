// Display name generation. Names are labels only and carry no semantics.
package agents

var givenNames = []string{
	"Ada", "Bram", "Cleo", "Dara", "Edda", "Fenn", "Gale", "Hollis",
	"Iris", "Jory", "Kestrel", "Lior", "Mara", "Nils", "Orin", "Petra",
	"Quill", "Rook", "Sable", "Tamsin", "Ulla", "Vesper", "Wren", "Yara",
}

var epithets = []string{
	"the Steady", "of the Ledger", "Two-Hands", "the Quiet", "Farview",
	"the Younger", "Ironword", "of the Crossing", "the Patient", "Halfmoon",
	"the Bold", "Longstride", "the Fair", "of the Vale", "Keeneye",
}

func (s *Spawner) generateName() string {
	given := givenNames[s.rng.Intn(len(givenNames))]
	if s.rng.Float64() < 0.4 {
		return given + " " + epithets[s.rng.Intn(len(epithets))]
	}
	return given
}
