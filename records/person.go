package records

import (
	"context"
	"fmt"

	"github.com/apache/thrift/lib/go/thrift"
)

// Person mirrors the Thrift definition
//
//	struct Person {
//	  1: string name
//	  2: i32 age
//	}
type Person struct {
	Name string `json:"name"`
	Age  int32  `json:"age"`
}

// SamplePeople returns the records used throughout the lab.
func SamplePeople() []Person {
	return []Person{
		{Name: "Alice", Age: 34},
		{Name: "Bob", Age: 27},
		{Name: "Carol", Age: 45},
		{Name: "Dave", Age: 19},
		{Name: "Eve", Age: 52},
	}
}

// Repeat returns people repeated until n records exist. Names get a numeric
// suffix after the first pass.
func Repeat(people []Person, n int) []Person {
	if len(people) == 0 || n <= 0 {
		return nil
	}
	out := make([]Person, n)
	for i := range out {
		p := people[i%len(people)]
		if pass := i / len(people); pass > 0 {
			p.Name = fmt.Sprintf("%s-%d", p.Name, pass)
		}
		out[i] = p
	}
	return out
}

func (p *Person) Read(ctx context.Context, iprot thrift.TProtocol) error {
	if _, err := iprot.ReadStructBegin(ctx); err != nil {
		return thrift.PrependError(fmt.Sprintf("%T read error: ", p), err)
	}

	for {
		_, fieldTypeID, fieldID, err := iprot.ReadFieldBegin(ctx)
		if err != nil {
			return thrift.PrependError(fmt.Sprintf("%T field %d read error: ", p, fieldID), err)
		}
		if fieldTypeID == thrift.STOP {
			break
		}
		switch {
		case fieldID == 1 && fieldTypeID == thrift.STRING:
			v, err := iprot.ReadString(ctx)
			if err != nil {
				return thrift.PrependError("error reading field 1: ", err)
			}
			p.Name = v
		case fieldID == 2 && fieldTypeID == thrift.I32:
			v, err := iprot.ReadI32(ctx)
			if err != nil {
				return thrift.PrependError("error reading field 2: ", err)
			}
			p.Age = v
		default:
			if err := iprot.Skip(ctx, fieldTypeID); err != nil {
				return err
			}
		}
		if err := iprot.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}

	if err := iprot.ReadStructEnd(ctx); err != nil {
		return thrift.PrependError(fmt.Sprintf("%T read struct end error: ", p), err)
	}
	return nil
}

func (p *Person) Write(ctx context.Context, oprot thrift.TProtocol) error {
	if err := oprot.WriteStructBegin(ctx, "Person"); err != nil {
		return thrift.PrependError(fmt.Sprintf("%T write struct begin error: ", p), err)
	}

	if err := oprot.WriteFieldBegin(ctx, "name", thrift.STRING, 1); err != nil {
		return thrift.PrependError(fmt.Sprintf("%T write field begin error 1:name: ", p), err)
	}
	if err := oprot.WriteString(ctx, p.Name); err != nil {
		return thrift.PrependError(fmt.Sprintf("%T.name (1) field write error: ", p), err)
	}
	if err := oprot.WriteFieldEnd(ctx); err != nil {
		return thrift.PrependError(fmt.Sprintf("%T write field end error 1:name: ", p), err)
	}

	if err := oprot.WriteFieldBegin(ctx, "age", thrift.I32, 2); err != nil {
		return thrift.PrependError(fmt.Sprintf("%T write field begin error 2:age: ", p), err)
	}
	if err := oprot.WriteI32(ctx, p.Age); err != nil {
		return thrift.PrependError(fmt.Sprintf("%T.age (2) field write error: ", p), err)
	}
	if err := oprot.WriteFieldEnd(ctx); err != nil {
		return thrift.PrependError(fmt.Sprintf("%T write field end error 2:age: ", p), err)
	}

	if err := oprot.WriteFieldStop(ctx); err != nil {
		return thrift.PrependError("write field stop error: ", err)
	}
	if err := oprot.WriteStructEnd(ctx); err != nil {
		return thrift.PrependError("write struct stop error: ", err)
	}
	return nil
}

// People mirrors the Thrift definition
//
//	struct People {
//	  1: list<Person> people
//	}
type People struct {
	People []Person
}

func (p *People) Read(ctx context.Context, iprot thrift.TProtocol) error {
	if _, err := iprot.ReadStructBegin(ctx); err != nil {
		return thrift.PrependError(fmt.Sprintf("%T read error: ", p), err)
	}

	for {
		_, fieldTypeID, fieldID, err := iprot.ReadFieldBegin(ctx)
		if err != nil {
			return thrift.PrependError(fmt.Sprintf("%T field %d read error: ", p, fieldID), err)
		}
		if fieldTypeID == thrift.STOP {
			break
		}
		if fieldID == 1 && fieldTypeID == thrift.LIST {
			if err := p.readPeople(ctx, iprot); err != nil {
				return err
			}
		} else if err := iprot.Skip(ctx, fieldTypeID); err != nil {
			return err
		}
		if err := iprot.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}

	if err := iprot.ReadStructEnd(ctx); err != nil {
		return thrift.PrependError(fmt.Sprintf("%T read struct end error: ", p), err)
	}
	return nil
}

func (p *People) readPeople(ctx context.Context, iprot thrift.TProtocol) error {
	_, size, err := iprot.ReadListBegin(ctx)
	if err != nil {
		return thrift.PrependError("error reading list begin: ", err)
	}
	if size < 0 {
		return thrift.NewTProtocolExceptionWithType(thrift.NEGATIVE_SIZE, fmt.Errorf("negative list size %d", size))
	}
	p.People = make([]Person, 0, min(size, 1<<16))
	for i := 0; i < size; i++ {
		var elem Person
		if err := elem.Read(ctx, iprot); err != nil {
			return thrift.PrependError(fmt.Sprintf("%T error reading struct: ", &elem), err)
		}
		p.People = append(p.People, elem)
	}
	if err := iprot.ReadListEnd(ctx); err != nil {
		return thrift.PrependError("error reading list end: ", err)
	}
	return nil
}

func (p *People) Write(ctx context.Context, oprot thrift.TProtocol) error {
	if err := oprot.WriteStructBegin(ctx, "People"); err != nil {
		return thrift.PrependError(fmt.Sprintf("%T write struct begin error: ", p), err)
	}

	if err := oprot.WriteFieldBegin(ctx, "people", thrift.LIST, 1); err != nil {
		return thrift.PrependError(fmt.Sprintf("%T write field begin error 1:people: ", p), err)
	}
	if err := oprot.WriteListBegin(ctx, thrift.STRUCT, len(p.People)); err != nil {
		return thrift.PrependError("error writing list begin: ", err)
	}
	for i := range p.People {
		if err := p.People[i].Write(ctx, oprot); err != nil {
			return thrift.PrependError(fmt.Sprintf("%T error writing struct: ", &p.People[i]), err)
		}
	}
	if err := oprot.WriteListEnd(ctx); err != nil {
		return thrift.PrependError("error writing list end: ", err)
	}
	if err := oprot.WriteFieldEnd(ctx); err != nil {
		return thrift.PrependError(fmt.Sprintf("%T write field end error 1:people: ", p), err)
	}

	if err := oprot.WriteFieldStop(ctx); err != nil {
		return thrift.PrependError("write field stop error: ", err)
	}
	if err := oprot.WriteStructEnd(ctx); err != nil {
		return thrift.PrependError("write struct stop error: ", err)
	}
	return nil
}
