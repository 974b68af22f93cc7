package domain

import (
	"testing"

	"pedigreecore/testutil"
)

func TestDomainImportsStandardLibraryOnly(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "domain must not depend on implementation packages")
	testutil.AssertNoDirectImports(t, ".", testutil.ThirdPartyImportForbidden, "domain carries no third-party dependencies")
	testutil.AssertNoTransitiveDependency(t, ".", testutil.InfraImportForbidden, "domain must stay independent of storage backends")
}
